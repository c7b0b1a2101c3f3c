package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opstrack/opstrack/cmd/config"
	"github.com/opstrack/opstrack/cmd/serve"
	"github.com/opstrack/opstrack/internal/aio"
	"github.com/opstrack/opstrack/internal/app/auth"
	"github.com/opstrack/opstrack/internal/app/subsystems/api/http"
	"github.com/opstrack/opstrack/internal/app/subsystems/persist"
	"github.com/opstrack/opstrack/internal/app/subsystems/persist/postgres"
	"github.com/opstrack/opstrack/internal/app/subsystems/persist/sqlite"
	"github.com/opstrack/opstrack/internal/kernel/system"
	"github.com/opstrack/opstrack/internal/notify"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *config.Config {
	return &config.Config{
		System: system.Config{
			Size:                1000,
			SubmissionBatchSize: 1000,
			CompletionBatchSize: 1000,
			SignalTimeout:       1 * time.Second,
			DiscardStale:        false,
		},
		AIO: aio.Config{
			Size:    1000,
			Workers: 8,
		},
		Http: http.Config{
			Addr:        ":8001",
			Timeout:     10 * time.Second,
			WaitTimeout: 30 * time.Second,
			CursorKey:   "opstrack",
			Cors:        http.Cors{AllowOrigins: []string{}},
			Auth: auth.Config{
				Basic: map[string]string{},
				JWT: auth.JWTConfig{
					Algorithm:    "HS256",
					Audience:     []string{},
					AccountClaim: "sub",
					ClockSkew:    30 * time.Second,
				},
			},
		},
		Notifications: notify.Config{
			Display: 5 * time.Second,
			Size:    100,
			Sweep:   "@every 5s",
		},
		Persist: config.Persist{
			Kind:   "sqlite",
			Writer: persist.Config{Size: 1000},
			Sqlite: sqlite.Config{
				Path:      "opstrack.db",
				TxTimeout: 10 * time.Second,
			},
			Postgres: postgres.Config{
				Host:      "localhost",
				Port:      "5432",
				Database:  "opstrack",
				MaxConns:  4,
				TxTimeout: 10 * time.Second,
			},
		},
		MetricsAddr: ":9090",
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		args     []string
		env      map[string]string
		expected func(*config.Config)
	}{
		{
			name:     "default serve",
			expected: func(*config.Config) {},
		},
		{
			name: "config from file",
			file: `
system:
  size: 1
  submissionBatchSize: 2
  completionBatchSize: 3
  signalTimeout: 4s
  discardStale: true
aio:
  size: 5
  workers: 6
http:
  addr: ":9001"
  waitTimeout: 7s
  cors:
    allowOrigins: ["http://localhost:3000"]
notifications:
  display: 8s
  sweep: "@every 1s"
persist:
  kind: postgres
  writer:
    size: 9
  postgres:
    host: db
    database: ops
metricsAddr: "localhost:8080"
logLevel: "warn"
logFormat: "json"`,
			expected: func(cfg *config.Config) {
				cfg.System.Size = 1
				cfg.System.SubmissionBatchSize = 2
				cfg.System.CompletionBatchSize = 3
				cfg.System.SignalTimeout = 4 * time.Second
				cfg.System.DiscardStale = true
				cfg.AIO.Size = 5
				cfg.AIO.Workers = 6
				cfg.Http.Addr = ":9001"
				cfg.Http.WaitTimeout = 7 * time.Second
				cfg.Http.Cors.AllowOrigins = []string{"http://localhost:3000"}
				cfg.Notifications.Display = 8 * time.Second
				cfg.Notifications.Sweep = "@every 1s"
				cfg.Persist.Kind = "postgres"
				cfg.Persist.Writer.Size = 9
				cfg.Persist.Postgres.Host = "db"
				cfg.Persist.Postgres.Database = "ops"
				cfg.MetricsAddr = "localhost:8080"
				cfg.LogLevel = "warn"
				cfg.LogFormat = "json"
			},
		},
		{
			name: "config from flags",
			args: []string{
				"--system-size", "2",
				"--system-signal-timeout", "3s",
				"--system-discard-stale",
				"--aio-workers", "4",
				"--http-addr", ":9002",
				"--http-cors-allow-origin", "http://a.com,http://b.com",
				"--http-auth-basic", "alice=secret",
				"--http-auth-jwt-audience", "opstrack",
				"--notifications-display", "10s",
				"--persist-kind", "none",
				"--persist-size", "5",
				"--persist-sqlite-path", ":memory:",
				"--metrics-addr", "localhost:8081",
				"--log-level", "error",
			},
			expected: func(cfg *config.Config) {
				cfg.System.Size = 2
				cfg.System.SignalTimeout = 3 * time.Second
				cfg.System.DiscardStale = true
				cfg.AIO.Workers = 4
				cfg.Http.Addr = ":9002"
				cfg.Http.Cors.AllowOrigins = []string{"http://a.com", "http://b.com"}
				cfg.Http.Auth.Basic = map[string]string{"alice": "secret"}
				cfg.Http.Auth.JWT.Audience = []string{"opstrack"}
				cfg.Notifications.Display = 10 * time.Second
				cfg.Persist.Kind = "none"
				cfg.Persist.Writer.Size = 5
				cfg.Persist.Sqlite.Path = ":memory:"
				cfg.MetricsAddr = "localhost:8081"
				cfg.LogLevel = "error"
			},
		},
		{
			name: "config from env",
			env: map[string]string{
				"OPSTRACK_AIO_WORKERS":  "16",
				"OPSTRACK_HTTP_ADDR":    ":9003",
				"OPSTRACK_PERSIST_KIND": "postgres",
			},
			expected: func(cfg *config.Config) {
				cfg.AIO.Workers = 16
				cfg.Http.Addr = ":9003"
				cfg.Persist.Kind = "postgres"
			},
		},
		{
			name: "config flags take precedence",
			file: `
system:
  size: 1
aio:
  workers: 6
logLevel: "warn"`,
			args: []string{
				"--aio-workers", "3",
				"--log-level", "error",
			},
			expected: func(cfg *config.Config) {
				cfg.System.Size = 1
				cfg.AIO.Workers = 3
				cfg.LogLevel = "error"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := &config.Config{}
			vip := viper.New()
			cmd := serve.NewCmd(cfg, vip)

			// set up config file
			configFile := filepath.Join(t.TempDir(), "opstrack.yaml")
			err := os.WriteFile(configFile, []byte(tt.file), 0644)
			require.NoError(t, err)

			// wire up config file
			err = cmd.Flags().Set("config", configFile)
			require.NoError(t, err)

			// call command with flags
			err = cmd.ParseFlags(tt.args)
			require.NoError(t, err)

			// run pre-run to load config
			err = cmd.PreRunE(cmd, []string{})
			require.NoError(t, err)

			// decode config
			err = cfg.Decode(vip)
			require.NoError(t, err)

			expected := defaults()
			tt.expected(expected)

			assert.Equal(t, expected, cfg)
		})
	}
}

func TestPersistNew(t *testing.T) {
	tests := []struct {
		name string
		kind string
		nil  bool
		err  bool
	}{
		{name: "sqlite", kind: "sqlite"},
		{name: "sqlite mixed case", kind: "SQLite"},
		{name: "none", kind: "none", nil: true},
		{name: "empty", kind: "", nil: true},
		{name: "unknown", kind: "mongo", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults().Persist
			cfg.Kind = tt.kind
			cfg.Sqlite.Path = ":memory:"

			p, err := cfg.New()
			if tt.err {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			if tt.nil {
				assert.Nil(t, p)
			} else {
				assert.NotNil(t, p)
			}
		})
	}
}
