package sqlite

import (
	"path/filepath"
	"time"
	"testing"

	"github.com/opstrack/opstrack/internal/app/subsystems/persist/test"
	"github.com/opstrack/opstrack/pkg/operation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteStore(t *testing.T) {
	for _, tc := range test.TestCases {
		store, err := New(&Config{Path: ":memory:", TxTimeout: time.Second})
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Start(); err != nil {
			t.Fatal(err)
		}

		tc.Run(t, store)

		if err := store.Stop(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSqliteStoreReopen(t *testing.T) {
	config := &Config{Path: filepath.Join(t.TempDir(), "opstrack.db"), TxTimeout: time.Second}

	store, err := New(config)
	require.NoError(t, err)
	require.NoError(t, store.Start())

	require.NoError(t, store.Save(&operation.Operation{
		Id:         "redeem-p1-0xabc",
		Kind:       "redeem",
		Status:     operation.Failure,
		Message:    "Redeeming failed",
		Meta:       map[string]string{"accountAddress": "0xabc"},
		Error:      "insufficient funds",
		TotalSteps: 1,
		Attempt:    2,
	}))
	require.NoError(t, store.Stop())

	store, err = New(config)
	require.NoError(t, err)
	require.NoError(t, store.Start())

	ops, err := store.LoadStatus(operation.Failure)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "insufficient funds", ops[0].Error)
	assert.Equal(t, int64(2), ops[0].Attempt)
	assert.Equal(t, "0xabc", ops[0].Meta["accountAddress"])

	ops, err = store.LoadStatus(operation.Pending)
	require.NoError(t, err)
	assert.Empty(t, ops)

	require.NoError(t, store.Stop())
}

func TestSqliteStoreResetRemovesFile(t *testing.T) {
	config := &Config{Path: filepath.Join(t.TempDir(), "opstrack.db"), TxTimeout: time.Second, Reset: true}

	store, err := New(config)
	require.NoError(t, err)
	require.NoError(t, store.Start())
	require.NoError(t, store.Stop())

	assert.NoFileExists(t, config.Path)
}
