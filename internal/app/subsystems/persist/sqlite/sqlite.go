package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/opstrack/opstrack/internal/util"
	"github.com/opstrack/opstrack/pkg/operation"

	_ "github.com/mattn/go-sqlite3"
)

const (
	CREATE_TABLE_STATEMENT = `
	CREATE TABLE IF NOT EXISTS operations (
		id          TEXT PRIMARY KEY,
		kind        TEXT,
		status      INTEGER DEFAULT 1,
		message     TEXT,
		meta        BLOB,
		payload     BLOB,
		error       TEXT,
		total_steps INTEGER DEFAULT 1,
		attempt     INTEGER DEFAULT 0,
		created_on  INTEGER,
		updated_on  INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_operations_status ON operations(status);`

	OPERATION_SELECT_ALL_STATEMENT = `
	SELECT
		id, kind, status, message, meta, payload, error, total_steps, attempt, created_on, updated_on
	FROM
		operations
	WHERE
		(status & ?) != 0
	ORDER BY
		id`

	OPERATION_UPSERT_STATEMENT = `
	INSERT INTO operations
		(id, kind, status, message, meta, payload, error, total_steps, attempt, created_on, updated_on)
	VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		kind = excluded.kind,
		status = excluded.status,
		message = excluded.message,
		meta = excluded.meta,
		payload = excluded.payload,
		error = excluded.error,
		total_steps = excluded.total_steps,
		attempt = excluded.attempt,
		created_on = excluded.created_on,
		updated_on = excluded.updated_on`

	OPERATION_DELETE_STATEMENT = `
	DELETE FROM operations WHERE id = ?`
)

// Config

type Config struct {
	Path      string        `flag:"path" desc:"sqlite database path" default:"opstrack.db"`
	TxTimeout time.Duration `flag:"tx-timeout" desc:"sqlite transaction timeout" default:"10s"`
	Reset     bool          `flag:"reset" desc:"reset sqlite db on shutdown" default:"false"`
}

type SqliteStore struct {
	config *Config
	db     *sql.DB
}

func New(config *Config) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, err
	}

	// sqlite allows a single writer, and every connection to :memory:
	// opens a distinct database
	db.SetMaxOpenConns(1)

	return &SqliteStore{
		config: config,
		db:     db,
	}, nil
}

func (s *SqliteStore) String() string {
	return "store:sqlite"
}

func (s *SqliteStore) Start() error {
	if _, err := s.db.Exec(CREATE_TABLE_STATEMENT); err != nil {
		return err
	}

	return nil
}

func (s *SqliteStore) Stop() error {
	if err := s.db.Close(); err != nil {
		return err
	}

	if s.config.Reset {
		return s.Reset()
	}

	return nil
}

func (s *SqliteStore) Reset() error {
	if s.config.Path == ":memory:" {
		return nil
	}

	if _, err := os.Stat(s.config.Path); err != nil {
		return nil
	}

	return os.Remove(s.config.Path)
}

func (s *SqliteStore) Save(o *operation.Operation) error {
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
			r.Meta,
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

func (s *SqliteStore) Delete(id string) error {
	return s.execute(func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, OPERATION_DELETE_STATEMENT, id)
		return err
	})
}

func (s *SqliteStore) Load() ([]*operation.Operation, error) {
	return s.LoadStatus(operation.Any)
}

// LoadStatus returns the stored operations whose status is in mask,
// ordered by id.
func (s *SqliteStore) LoadStatus(mask operation.Status) ([]*operation.Operation, error) {
	ops := []*operation.Operation{}

	err := s.execute(func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, OPERATION_SELECT_ALL_STATEMENT, mask)
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

func (s *SqliteStore) execute(f func(context.Context, *sql.Tx) error) error {
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
