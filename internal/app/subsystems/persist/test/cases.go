package test

import (
	"testing"

	"github.com/opstrack/opstrack/internal/app/subsystems/persist"
	"github.com/opstrack/opstrack/pkg/operation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type write struct {
	save   *operation.Operation
	delete string
}

type testCase struct {
	name     string
	writes   []*write
	expected []*operation.Operation
}

func (c *testCase) Run(t *testing.T, p persist.Persister) {
	t.Run(c.name, func(t *testing.T) {
		for _, w := range c.writes {
			if w.save != nil {
				require.NoError(t, p.Save(w.save))
			} else {
				require.NoError(t, p.Delete(w.delete))
			}
		}

		ops, err := p.Load()
		require.NoError(t, err)
		assert.Equal(t, c.expected, ops)
	})
}

func pending(id string, attempt int64) *operation.Operation {
	return &operation.Operation{
		Id:         id,
		Kind:       "vote",
		Status:     operation.Pending,
		Message:    "Voting...",
		Meta:       map[string]string{"proposalId": "p1"},
		TotalSteps: 1,
		Attempt:    attempt,
		CreatedOn:  1,
		UpdatedOn:  1,
	}
}

func failed(id string, attempt int64) *operation.Operation {
	return &operation.Operation{
		Id:         id,
		Kind:       "vote",
		Status:     operation.Failure,
		Message:    "Voting failed",
		Meta:       map[string]string{"proposalId": "p1"},
		Error:      "execution reverted",
		TotalSteps: 1,
		Attempt:    attempt,
		CreatedOn:  1,
		UpdatedOn:  2,
	}
}

var TestCases = []*testCase{
	{
		name:     "LoadEmpty",
		expected: []*operation.Operation{},
	},
	{
		name: "SaveAndLoad",
		writes: []*write{
			{save: pending("vote-p1-1", 1)},
		},
		expected: []*operation.Operation{
			pending("vote-p1-1", 1),
		},
	},
	{
		name: "SaveOverwrites",
		writes: []*write{
			{save: pending("vote-p1-1", 1)},
			{save: failed("vote-p1-1", 1)},
		},
		expected: []*operation.Operation{
			failed("vote-p1-1", 1),
		},
	},
	{
		name: "LoadOrderedById",
		writes: []*write{
			{save: pending("vote-p2-1", 1)},
			{save: failed("vote-p1-0", 3)},
		},
		expected: []*operation.Operation{
			failed("vote-p1-0", 3),
			pending("vote-p2-1", 1),
		},
	},
	{
		name: "Delete",
		writes: []*write{
			{save: pending("vote-p1-1", 1)},
			{save: pending("vote-p1-2", 1)},
			{delete: "vote-p1-1"},
		},
		expected: []*operation.Operation{
			pending("vote-p1-2", 1),
		},
	},
	{
		name: "DeleteAbsent",
		writes: []*write{
			{delete: "vote-p1-1"},
		},
		expected: []*operation.Operation{},
	},
	{
		name: "PayloadRoundtrip",
		writes: []*write{
			{save: &operation.Operation{
				Id:         "stake-p1-1",
				Kind:       "stake",
				Status:     operation.Pending,
				Message:    "Staking...",
				Payload:    map[string]any{"outcome": float64(1)},
				TotalSteps: 2,
				Attempt:    1,
				CreatedOn:  1,
				UpdatedOn:  1,
			}},
		},
		expected: []*operation.Operation{{
			Id:         "stake-p1-1",
			Kind:       "stake",
			Status:     operation.Pending,
			Message:    "Staking...",
			Payload:    map[string]any{"outcome": float64(1)},
			TotalSteps: 2,
			Attempt:    1,
			CreatedOn:  1,
			UpdatedOn:  1,
		}},
	},
}
