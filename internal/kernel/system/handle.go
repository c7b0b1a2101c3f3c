package system

import (
	"context"

	"github.com/opstrack/opstrack/pkg/operation"
)

// Handle is the future for one attempt of a tracked operation.
type Handle struct {
	id        string
	done      chan struct{}
	operation *operation.Operation
}

func (h *Handle) Id() string {
	return h.id
}

// Attempt returns the attempt number the operation resolved with, zero
// until Done is closed or when the submission was rejected.
func (h *Handle) Attempt() int64 {
	select {
	case <-h.done:
		return h.operation.Attempt
	default:
		return 0
	}
}

func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Await blocks until the attempt resolves and returns the terminal record
// it produced. The record is the attempt's own result, the store may
// already hold a newer attempt for the same id.
func (h *Handle) Await() *operation.Operation {
	<-h.done
	return h.operation
}

func (h *Handle) AwaitContext(ctx context.Context) (*operation.Operation, error) {
	select {
	case <-h.done:
		return h.operation, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Handle) resolve(o *operation.Operation) {
	h.operation = o
	close(h.done)
}

// Options

type Option func(*options)

type options struct {
	kind           string
	meta           map[string]string
	totalSteps     int
	successMessage string
	failureMessage string
	notify         bool
}

// WithKind sets the action-type tag, by default the id prefix up to the
// first dash.
func WithKind(kind string) Option {
	return func(o *options) {
		o.kind = kind
	}
}

func WithMeta(meta map[string]string) Option {
	return func(o *options) {
		o.meta = meta
	}
}

func WithTotalSteps(n int) Option {
	return func(o *options) {
		o.totalSteps = n
	}
}

func WithSuccessMessage(msg string) Option {
	return func(o *options) {
		o.successMessage = msg
	}
}

func WithFailureMessage(msg string) Option {
	return func(o *options) {
		o.failureMessage = msg
	}
}

func WithoutNotification() Option {
	return func(o *options) {
		o.notify = false
	}
}
