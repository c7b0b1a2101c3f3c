package system

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opstrack/opstrack/internal/aio"
	"github.com/opstrack/opstrack/internal/kernel/bus"
	"github.com/opstrack/opstrack/internal/kernel/selectors"
	"github.com/opstrack/opstrack/internal/kernel/store"
	"github.com/opstrack/opstrack/internal/kernel/t_op"
	"github.com/opstrack/opstrack/internal/metrics"
	"github.com/opstrack/opstrack/internal/notify"
	"github.com/opstrack/opstrack/internal/util"
	"github.com/opstrack/opstrack/pkg/notification"
	"github.com/opstrack/opstrack/pkg/operation"
)

var (
	ErrSubmissionQueueFull = errors.New("submission queue full")
	ErrAIOQueueFull        = errors.New("aio submission queue full")
	ErrShuttingDown        = errors.New("system is shutting down")
	ErrInvalidId           = errors.New("operation id must not be empty")
)

type Config struct {
	Size                int           `flag:"size" desc:"submission buffered channel size" default:"1000"`
	SubmissionBatchSize int           `flag:"submission-batch-size" desc:"max submissions processed per tick" default:"1000"`
	CompletionBatchSize int           `flag:"completion-batch-size" desc:"max completions processed per tick" default:"1000"`
	SignalTimeout       time.Duration `flag:"signal-timeout" desc:"time to wait for a submission or completion signal" default:"1s"`
	DiscardStale        bool          `flag:"discard-stale" desc:"drop terminal writes of superseded attempts" default:"false"`
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Config(size=%d, sbs=%d, cbs=%d, discardStale=%t)",
		c.Size,
		c.SubmissionBatchSize,
		c.CompletionBatchSize,
		c.DiscardStale,
	)
}

// Listener observes every store write, in emission order, on the loop
// goroutine. Listeners must not block.
type Listener func(t_op.Event, *store.Store)

// System owns the operation record store. All transitions are applied
// by the goroutine running Loop; tasks run on the aio workers and their
// results are folded back in on the next tick.
type System struct {
	aio          aio.AIO
	config       *Config
	metrics      *metrics.Metrics
	notifier     notify.Notifier
	sq           chan *bus.SQE[t_op.Request, t_op.Response]
	ready        chan struct{}
	state        *store.Store
	snapshot     atomic.Pointer[store.Store]
	mu           sync.RWMutex
	closed       bool
	listeners    []Listener
	inflight     int
	time         int64
	shutdown     chan any
	shortCircuit chan any
}

func New(aio aio.AIO, config *Config, metrics *metrics.Metrics, notifier notify.Notifier) *System {
	if notifier == nil {
		notifier = notify.Discard
	}

	s := &System{
		aio:          aio,
		config:       config,
		metrics:      metrics,
		notifier:     notifier,
		sq:           make(chan *bus.SQE[t_op.Request, t_op.Response], config.Size),
		ready:        make(chan struct{}, 1),
		state:        store.New(),
		shutdown:     make(chan any),
		shortCircuit: make(chan any, 1),
	}
	s.snapshot.Store(s.state)

	return s
}

func (s *System) String() string {
	return fmt.Sprintf(
		"System(aio=%s, config=%s)",
		s.aio,
		s.config,
	)
}

// Snapshot returns the current store, safe to call from any goroutine.
func (s *System) Snapshot() *store.Store {
	return s.snapshot.Load()
}

func (s *System) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, l)
}

// Restore seeds the store with previously persisted records, it must be
// called before Loop.
func (s *System) Restore(ops []*operation.Operation) {
	for _, o := range ops {
		s.state = s.state.Upsert(o.Id, &operation.Patch{
			Kind:       &o.Kind,
			Status:     &o.Status,
			Message:    &o.Message,
			Meta:       o.Meta,
			Payload:    o.Payload,
			Error:      &o.Error,
			TotalSteps: &o.TotalSteps,
			Attempt:    &o.Attempt,
			Time:       o.UpdatedOn,
		})
	}

	s.snapshot.Store(s.state)
	slog.Info("restored operations", "count", len(ops))
}

// RunTrackedOperation emits a pending record for id, runs task on the
// aio workers and emits a success or failure record once it resolves.
// Task errors never surface as Go errors, they are only observable
// through the returned handle and the store.
func (s *System) RunTrackedOperation(id string, message string, task t_op.Task, opts ...Option) *Handle {
	util.Assert(task != nil, "task must not be nil")

	o := &options{notify: true}
	for _, opt := range opts {
		opt(o)
	}

	req := &t_op.RunRequest{
		Id:             id,
		Kind:           o.kind,
		Message:        message,
		SuccessMessage: o.successMessage,
		FailureMessage: o.failureMessage,
		Meta:           normalize(o.meta),
		TotalSteps:     o.totalSteps,
		Notify:         o.notify,
		Task:           task,
	}

	if req.Kind == "" {
		req.Kind, _, _ = strings.Cut(id, "-")
	}
	if req.SuccessMessage == "" {
		req.SuccessMessage = fmt.Sprintf("%s succeeded!", label(message))
	}
	if req.FailureMessage == "" {
		req.FailureMessage = fmt.Sprintf("%s failed", label(message))
	}

	h := &Handle{id: id, done: make(chan struct{})}

	if id == "" {
		s.reject(h, req, ErrInvalidId)
		return h
	}

	err := s.enqueue(&bus.SQE[t_op.Request, t_op.Response]{
		Id: id,
		Submission: &t_op.Request{
			Kind: t_op.Run,
			Run:  req,
		},
		Callback: func(res *t_op.Response, _ error) {
			h.resolve(res.Operation)
		},
	})
	if err != nil {
		s.reject(h, req, err)
	}

	return h
}

// reject resolves h with a failure record that is never written to the
// store, the attempt of a rejected submission is zero.
func (s *System) reject(h *Handle, req *t_op.RunRequest, err error) {
	slog.Warn("operation rejected", "id", req.Id, "err", err)
	h.resolve(&operation.Operation{
		Id:         req.Id,
		Kind:       req.Kind,
		Status:     operation.Failure,
		Message:    req.FailureMessage,
		Meta:       req.Meta,
		Error:      err.Error(),
		TotalSteps: max(req.TotalSteps, 1),
	})
}

// Clear removes the record for id and waits until the removal has been
// applied.
func (s *System) Clear(ctx context.Context, id string) error {
	done := make(chan struct{})

	err := s.enqueue(&bus.SQE[t_op.Request, t_op.Response]{
		Id: id,
		Submission: &t_op.Request{
			Kind:  t_op.Clear,
			Clear: &t_op.ClearRequest{Id: id},
		},
		Callback: func(*t_op.Response, error) {
			close(done)
		},
	})
	if err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *System) enqueue(sqe *bus.SQE[t_op.Request, t_op.Response]) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrShuttingDown
	}

	select {
	case s.sq <- sqe:
	default:
		return ErrSubmissionQueueFull
	}

	select {
	case s.ready <- struct{}{}:
	default:
	}

	return nil
}

func (s *System) Loop() error {
	defer close(s.shutdown)

	for {
		// tick first
		s.Tick(time.Now().UnixMilli())

		// complete shutdown if done
		if s.done() {
			return nil
		}

		cancel := make(chan any)
		sqSignal := s.signal(cancel)
		aioSignal := s.aio.Signal(cancel)

		// wait for a signal, short circuit, or timeout; whichever occurs
		// first
		select {
		case <-sqSignal:
		case <-aioSignal:
		case <-s.shortCircuit:
		case <-time.After(s.config.SignalTimeout):
		}

		// close the cancel channel so the signal goroutines exit
		close(cancel)
		<-sqSignal
		<-aioSignal
	}
}

func (s *System) Tick(t int64) {
	util.Assert(s.config.SubmissionBatchSize > 0, "submission batch size must be greater than zero")
	util.Assert(s.config.CompletionBatchSize > 0, "completion batch size must be greater than zero")

	s.time = t

	// completions first so that resolved attempts leave the in flight
	// count before new submissions are admitted
	cqes := s.aio.Dequeue(s.config.CompletionBatchSize)
	util.Assert(len(cqes) <= s.config.CompletionBatchSize, "cqe length must be no greater than the completion batch size")

	for _, cqe := range cqes {
		cqe.Callback(cqe.Completion, cqe.Error)
	}

	for i := 0; i < s.config.SubmissionBatchSize; i++ {
		select {
		case sqe := <-s.sq:
			s.process(sqe)
		default:
			return
		}
	}
}

// Shutdown stops accepting submissions and returns a channel that is
// closed once Loop has drained every in flight attempt. In flight tasks
// are not cancelled.
func (s *System) Shutdown() <-chan any {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	select {
	case s.shortCircuit <- nil:
	default:
	}

	return s.shutdown
}

// done reports whether shutdown has drained, it must only be called from
// the loop goroutine.
func (s *System) done() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.closed && len(s.sq) == 0 && s.inflight == 0
}

func (s *System) signal(cancel <-chan any) <-chan any {
	ch := make(chan any)

	if len(s.sq) > 0 {
		close(ch)
		return ch
	}

	go func() {
		defer close(ch)

		select {
		case <-s.ready:
		case <-cancel:
		}
	}()

	return ch
}

func (s *System) process(sqe *bus.SQE[t_op.Request, t_op.Response]) {
	switch sqe.Submission.Kind {
	case t_op.Run:
		util.Assert(sqe.Submission.Run != nil, "run request must not be nil")
		s.run(sqe.Submission.Run, sqe.Callback)
	case t_op.Clear:
		util.Assert(sqe.Submission.Clear != nil, "clear request must not be nil")
		s.emit(&t_op.Cleared{Id: sqe.Submission.Clear.Id})
		sqe.Callback(&t_op.Response{Kind: t_op.Clear}, nil)
	default:
		panic(fmt.Sprintf("invalid request kind: %s", sqe.Submission.Kind))
	}
}

func (s *System) run(req *t_op.RunRequest, callback func(*t_op.Response, error)) {
	s.emit(&t_op.Pending{
		Id:         req.Id,
		Kind:       req.Kind,
		Message:    req.Message,
		Meta:       req.Meta,
		TotalSteps: req.TotalSteps,
		Time:       s.time,
	})

	pending, ok := s.state.Get(req.Id)
	util.Assert(ok && pending.Status == operation.Pending, "pending record must exist after pending event")

	attempt := pending.Attempt
	start := s.time

	s.inflight++
	s.metrics.OperationsTotal.WithLabelValues(req.Kind, "pending").Inc()
	s.metrics.OperationsInFlight.WithLabelValues(req.Kind).Inc()
	slog.Debug("operation:pending", "id", req.Id, "attempt", attempt)

	complete := func(payload any, err error) {
		s.inflight--
		s.metrics.OperationsInFlight.WithLabelValues(req.Kind).Dec()

		result := pending.Copy()
		result.UpdatedOn = s.time

		var status notification.Status
		if err != nil {
			slog.Error("operation failed", "id", req.Id, "attempt", attempt, "err", err)

			s.emit(&t_op.Failed{
				Id:      req.Id,
				Attempt: attempt,
				Message: req.FailureMessage,
				Err:     err,
				Time:    s.time,
			})

			result.Status = operation.Failure
			result.Message = req.FailureMessage
			result.Error = err.Error()
			status = notification.Error
		} else {
			slog.Debug("operation:success", "id", req.Id, "attempt", attempt)

			s.emit(&t_op.Succeeded{
				Id:      req.Id,
				Attempt: attempt,
				Message: req.SuccessMessage,
				Payload: payload,
				Time:    s.time,
			})

			result.Status = operation.Success
			result.Message = req.SuccessMessage
			result.Payload = payload
			status = notification.Success
		}

		terminal := strings.ToLower(result.Status.String())
		s.metrics.OperationsTotal.WithLabelValues(req.Kind, terminal).Inc()
		s.metrics.OperationsDuration.WithLabelValues(req.Kind, terminal).Observe(float64(s.time-start) / 1000)

		if req.Notify {
			s.notifier.Notify(status, result.Message)
			s.metrics.NotificationsTotal.WithLabelValues(status.String()).Inc()
		}

		callback(&t_op.Response{Kind: t_op.Run, Operation: result}, nil)
	}

	ok = s.aio.Enqueue(&bus.SQE[t_op.Submission, t_op.Completion]{
		Id: req.Id,
		Submission: &t_op.Submission{
			Id:      req.Id,
			Kind:    req.Kind,
			Attempt: attempt,
			Task:    req.Task,
		},
		Callback: func(completion *t_op.Completion, err error) {
			if err != nil {
				complete(nil, err)
				return
			}
			complete(completion.Payload, nil)
		},
	})
	if !ok {
		complete(nil, ErrAIOQueueFull)
	}
}

// emit applies e to the store and informs the listeners, it must only be
// called from the loop goroutine.
func (s *System) emit(e t_op.Event) {
	next, changed := store.Apply(s.state, e, s.config.DiscardStale)
	if !changed {
		slog.Debug("system:discard", "event", e)
		return
	}

	s.state = next
	s.snapshot.Store(next)

	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	for _, l := range listeners {
		l(e, next)
	}
}

// normalize returns a copy of meta with the account address lower-cased
// so that account lookups are case-insensitive.
func normalize(meta map[string]string) map[string]string {
	if meta == nil {
		return nil
	}

	m := maps.Clone(meta)
	if account, ok := m[selectors.MetaAccountAddress]; ok {
		m[selectors.MetaAccountAddress] = strings.ToLower(account)
	}

	return m
}

func label(message string) string {
	return strings.TrimSuffix(strings.TrimSpace(message), "...")
}
