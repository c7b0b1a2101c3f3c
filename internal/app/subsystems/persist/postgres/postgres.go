package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/opstrack/opstrack/internal/util"
	"github.com/opstrack/opstrack/pkg/operation"

	_ "github.com/lib/pq"
)

const (
	CREATE_TABLE_STATEMENT = `
	CREATE TABLE IF NOT EXISTS operations (
		id          TEXT,
		kind        TEXT,
		status      INTEGER DEFAULT 1,
		message     TEXT,
		meta        JSONB,
		payload     BYTEA,
		error       TEXT,
		total_steps INTEGER DEFAULT 1,
		attempt     BIGINT DEFAULT 0,
		created_on  BIGINT,
		updated_on  BIGINT,
		PRIMARY KEY(id)
	);

	CREATE INDEX IF NOT EXISTS idx_operations_status ON operations(status);`

	DROP_TABLE_STATEMENT = `
	DROP TABLE operations;`

	OPERATION_SELECT_ALL_STATEMENT = `
	SELECT
		id, kind, status, message, meta, payload, error, total_steps, attempt, created_on, updated_on
	FROM
		operations
	WHERE
		(status & $1) != 0
	ORDER BY
		id`

	OPERATION_UPSERT_STATEMENT = `
	INSERT INTO operations
		(id, kind, status, message, meta, payload, error, total_steps, attempt, created_on, updated_on)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT(id)
	DO UPDATE SET
		kind = EXCLUDED.kind,
		status = EXCLUDED.status,
		message = EXCLUDED.message,
		meta = EXCLUDED.meta,
		payload = EXCLUDED.payload,
		error = EXCLUDED.error,
		total_steps = EXCLUDED.total_steps,
		attempt = EXCLUDED.attempt,
		created_on = EXCLUDED.created_on,
		updated_on = EXCLUDED.updated_on`

	OPERATION_DELETE_STATEMENT = `
	DELETE FROM operations WHERE id = $1`
)

// Config

type Config struct {
	Host      string        `flag:"host" desc:"postgres host" default:"localhost"`
	Port      string        `flag:"port" desc:"postgres port" default:"5432"`
	Username  string        `flag:"username" desc:"postgres username"`
	Password  string        `flag:"password" desc:"postgres password"`
	Database  string        `flag:"database" desc:"postgres database" default:"opstrack"`
	MaxConns  int           `flag:"max-conns" desc:"postgres max open connections" default:"4"`
	TxTimeout time.Duration `flag:"tx-timeout" desc:"postgres transaction timeout" default:"10s"`
	Reset     bool          `flag:"reset" desc:"drop postgres tables on shutdown" default:"false"`
}

type PostgresStore struct {
	config *Config
	db     *sql.DB
}

func New(config *Config) (*PostgresStore, error) {
	dbUrl := &url.URL{
		User:     url.UserPassword(config.Username, config.Password),
		Host:     fmt.Sprintf("%s:%s", config.Host, config.Port),
		Path:     config.Database,
		Scheme:   "postgres",
		RawQuery: "sslmode=disable",
	}

	db, err := sql.Open("postgres", dbUrl.String())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(config.MaxConns)
	db.SetMaxIdleConns(config.MaxConns)
	db.SetConnMaxIdleTime(0)

	return &PostgresStore{
		config: config,
		db:     db,
	}, nil
}

func (s *PostgresStore) String() string {
	return "store:postgres"
}

func (s *PostgresStore) Start() error {
	if _, err := s.db.Exec(CREATE_TABLE_STATEMENT); err != nil {
		return err
	}

	return nil
}

func (s *PostgresStore) Stop() error {
	if s.config.Reset {
		if err := s.Reset(); err != nil {
			return err
		}
	}

	return s.db.Close()
}

func (s *PostgresStore) Reset() error {
	if _, err := s.db.Exec(DROP_TABLE_STATEMENT); err != nil {
		return err
	}

	return nil
}

func (s *PostgresStore) Save(o *operation.Operation) error {
	util.Assert(o != nil, "operation must not be nil")

	r, err := operation.NewRecord(o)
	if err != nil {
		return err
	}

	return s.execute(func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, OPERATION_UPSERT_STATEMENT,
			r.Id,
			r.Kind,
			r.Status,
			r.Message,
			string(r.Meta),
			r.Payload,
			r.Error,
			r.TotalSteps,
			r.Attempt,
			r.CreatedOn,
			r.UpdatedOn,
		)
		return err
	})
}

func (s *PostgresStore) Delete(id string) error {
	return s.execute(func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, OPERATION_DELETE_STATEMENT, id)
		return err
	})
}

func (s *PostgresStore) Load() ([]*operation.Operation, error) {
	ops := []*operation.Operation{}

	err := s.execute(func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, OPERATION_SELECT_ALL_STATEMENT, operation.Any)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			r := &operation.OperationRecord{}
			var errText sql.NullString

			if err := rows.Scan(
				&r.Id,
				&r.Kind,
				&r.Status,
				&r.Message,
				&r.Meta,
				&r.Payload,
				&errText,
				&r.TotalSteps,
				&r.Attempt,
				&r.CreatedOn,
				&r.UpdatedOn,
			); err != nil {
				return err
			}
			r.Error = errText.String

			o, err := r.Operation()
			if err != nil {
				return err
			}

			ops = append(ops, o)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return ops, nil
}

func (s *PostgresStore) execute(f func(context.Context, *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.TxTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := f(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = fmt.Errorf("tx failed: %v, unable to rollback: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}
