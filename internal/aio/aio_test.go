package aio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opstrack/opstrack/internal/kernel/bus"
	"github.com/opstrack/opstrack/internal/kernel/t_op"
	"github.com/opstrack/opstrack/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func submission(id string, task t_op.Task) *bus.SQE[t_op.Submission, t_op.Completion] {
	return &bus.SQE[t_op.Submission, t_op.Completion]{
		Id: id,
		Submission: &t_op.Submission{
			Id:      id,
			Attempt: 1,
			Task:    task,
		},
	}
}

func dequeueN(t *testing.T, a AIO, n int) []*bus.CQE[t_op.Submission, t_op.Completion] {
	cqes := []*bus.CQE[t_op.Submission, t_op.Completion]{}

	deadline := time.After(5 * time.Second)
	for len(cqes) < n {
		cancel := make(chan any)
		select {
		case <-a.Signal(cancel):
		case <-deadline:
			close(cancel)
			t.Fatalf("timed out waiting for %d completions, got %d", n, len(cqes))
		}
		close(cancel)

		cqes = append(cqes, a.Dequeue(n-len(cqes))...)
	}

	return cqes
}

func TestAIO(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := New(&Config{Size: 10, Workers: 2}, metrics.New(prometheus.NewRegistry()))
	require.NoError(t, a.Start())

	for _, tc := range []struct {
		name    string
		task    t_op.Task
		payload any
		err     string
	}{
		{
			name:    "success",
			task:    func(context.Context) (any, error) { return map[string]any{"outcome": 1}, nil },
			payload: map[string]any{"outcome": 1},
		},
		{
			name: "failure",
			task: func(context.Context) (any, error) { return nil, errors.New("reverted") },
			err:  "reverted",
		},
		{
			name: "panic",
			task: func(context.Context) (any, error) { panic("boom") },
			err:  "task panicked: boom",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.True(t, a.Enqueue(submission(tc.name, tc.task)))

			cqes := dequeueN(t, a, 1)
			require.Len(t, cqes, 1)
			assert.Equal(t, tc.name, cqes[0].Id)

			if tc.err != "" {
				assert.EqualError(t, cqes[0].Error, tc.err)
				assert.Nil(t, cqes[0].Completion)
			} else {
				assert.NoError(t, cqes[0].Error)
				assert.Equal(t, tc.payload, cqes[0].Completion.Payload)
				assert.Equal(t, int64(1), cqes[0].Completion.Attempt)
			}
		})
	}

	require.NoError(t, a.Stop())
}

func TestAIOQueueFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := New(&Config{Size: 1, Workers: 1}, metrics.New(prometheus.NewRegistry()))

	// workers are not started so the queue fills up
	block := func(context.Context) (any, error) { return nil, nil }
	assert.True(t, a.Enqueue(submission("foo", block)))
	assert.False(t, a.Enqueue(submission("bar", block)))

	require.NoError(t, a.Start())
	cqes := dequeueN(t, a, 1)
	assert.Equal(t, "foo", cqes[0].Id)

	require.NoError(t, a.Stop())
}

func TestAIOSignalCancel(t *testing.T) {
	a := New(&Config{Size: 1, Workers: 1}, metrics.New(prometheus.NewRegistry()))

	cancel := make(chan any)
	signal := a.Signal(cancel)
	close(cancel)

	select {
	case <-signal:
	case <-time.After(time.Second):
		t.Fatal("signal not closed after cancel")
	}
}
