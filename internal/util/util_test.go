package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCron(t *testing.T) {
	start := time.UnixMilli(1704719383520)

	testCases := []struct {
		name     string
		cronExp  string
		expected time.Time
		hasErr   bool
	}{
		{
			name:     "every minute",
			cronExp:  "* * * * *",
			expected: time.UnixMilli(1704719400000),
		},
		{
			name:     "descriptor",
			cronExp:  "@every 5s",
			expected: start.Add(5 * time.Second).Truncate(time.Second),
		},
		{
			name:    "invalid",
			cronExp: "random",
			hasErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			schedule, err := ParseCron(tc.cronExp)
			if tc.hasErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected.UnixMilli(), schedule.Next(start).UnixMilli())
		})
	}
}

func TestOrderedRange(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2}

	assert.Equal(t, []int{1, 2, 3}, OrderedRange(m))

	kvs := OrderedRangeKV(m)
	assert.Len(t, kvs, 3)
	assert.Equal(t, "a", kvs[0].Key)
	assert.Equal(t, 3, kvs[2].Value)
}
