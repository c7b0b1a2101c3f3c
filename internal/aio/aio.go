package aio

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/opstrack/opstrack/internal/kernel/bus"
	"github.com/opstrack/opstrack/internal/kernel/t_op"
	"github.com/opstrack/opstrack/internal/metrics"
	"github.com/opstrack/opstrack/internal/util"
	"github.com/prometheus/client_golang/prometheus"
)

// Config

type Config struct {
	Size    int `flag:"size" desc:"submission and completion buffered channel size" default:"1000"`
	Workers int `flag:"workers" desc:"number of task workers" default:"8"`
}

// AIO runs task submissions on a pool of workers and hands completions
// back to the system loop, which is the only goroutine that observes
// them.
type AIO interface {
	String() string
	Start() error
	Stop() error
	Enqueue(*bus.SQE[t_op.Submission, t_op.Completion]) bool
	Dequeue(int) []*bus.CQE[t_op.Submission, t_op.Completion]
	Signal(<-chan any) <-chan any
}

type aio struct {
	config  *Config
	ctx     context.Context
	cancel  context.CancelFunc
	sq      chan *bus.SQE[t_op.Submission, t_op.Completion]
	cq      chan *bus.CQE[t_op.Submission, t_op.Completion]
	ready   chan struct{}
	workers []*worker
	wg      sync.WaitGroup
	metrics *metrics.Metrics
}

type worker struct {
	i       int
	aio     *aio
	counter prometheus.Gauge
}

func New(config *Config, metrics *metrics.Metrics) AIO {
	util.Assert(config.Size > 0, "size must be greater than zero")
	util.Assert(config.Workers > 0, "workers must be greater than zero")

	ctx, cancel := context.WithCancel(context.Background())

	a := &aio{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		sq:      make(chan *bus.SQE[t_op.Submission, t_op.Completion], config.Size),
		cq:      make(chan *bus.CQE[t_op.Submission, t_op.Completion], config.Size),
		ready:   make(chan struct{}, 1),
		workers: make([]*worker, config.Workers),
		metrics: metrics,
	}

	for i := 0; i < config.Workers; i++ {
		a.workers[i] = &worker{
			i:       i,
			aio:     a,
			counter: metrics.AioWorkerInFlight.WithLabelValues(a.String(), strconv.Itoa(i)),
		}
	}

	return a
}

func (a *aio) String() string {
	return "task"
}

func (a *aio) Start() error {
	for _, w := range a.workers {
		a.wg.Add(1)
		go w.start()
	}

	return nil
}

// Stop closes the submission queue and waits for the workers to finish
// the tasks they hold. Completions produced while stopping stay in the
// completion queue.
func (a *aio) Stop() error {
	close(a.sq)
	a.wg.Wait()
	a.cancel()

	return nil
}

func (a *aio) Enqueue(sqe *bus.SQE[t_op.Submission, t_op.Completion]) bool {
	select {
	case a.sq <- sqe:
		slog.Debug("aio:enqueue", "sqe", sqe)
		a.metrics.AioInFlight.WithLabelValues(a.String()).Inc()
		return true
	default:
		return false
	}
}

func (a *aio) Dequeue(n int) []*bus.CQE[t_op.Submission, t_op.Completion] {
	cqes := []*bus.CQE[t_op.Submission, t_op.Completion]{}

	// collects n entries or until the channel is
	// exhausted, whichever happens first
	for i := 0; i < n; i++ {
		select {
		case cqe := <-a.cq:
			var status string
			if cqe.Error != nil {
				status = "failure"
			} else {
				status = "success"
			}

			a.metrics.AioTotal.WithLabelValues(a.String(), status).Inc()
			a.metrics.AioInFlight.WithLabelValues(a.String()).Dec()

			slog.Debug("aio:dequeue", "cqe", cqe)
			cqes = append(cqes, cqe)
		default:
			return cqes
		}
	}

	return cqes
}

// Signal returns a channel that is closed once a completion is available
// or cancel is closed, whichever happens first.
func (a *aio) Signal(cancel <-chan any) <-chan any {
	ch := make(chan any)

	if len(a.cq) > 0 {
		close(ch)
		return ch
	}

	go func() {
		defer close(ch)

		select {
		case <-a.ready:
		case <-cancel:
		}
	}()

	return ch
}

// worker

func (w *worker) start() {
	defer w.aio.wg.Done()

	w.aio.metrics.AioWorker.WithLabelValues(w.aio.String()).Inc()
	defer w.aio.metrics.AioWorker.WithLabelValues(w.aio.String()).Dec()

	for sqe := range w.aio.sq {
		w.counter.Inc()
		cqe := w.process(sqe)
		w.counter.Dec()

		w.aio.cq <- cqe

		// wake the loop, a pending wakeup is enough
		select {
		case w.aio.ready <- struct{}{}:
		default:
		}
	}
}

func (w *worker) process(sqe *bus.SQE[t_op.Submission, t_op.Completion]) (cqe *bus.CQE[t_op.Submission, t_op.Completion]) {
	cqe = &bus.CQE[t_op.Submission, t_op.Completion]{
		Id:       sqe.Id,
		Callback: sqe.Callback,
	}

	defer func() {
		if r := recover(); r != nil {
			cqe.Completion = nil
			cqe.Error = fmt.Errorf("task panicked: %v", r)
		}
	}()

	payload, err := sqe.Submission.Task(w.aio.ctx)
	if err != nil {
		cqe.Error = err
		return cqe
	}

	cqe.Completion = &t_op.Completion{
		Id:      sqe.Submission.Id,
		Attempt: sqe.Submission.Attempt,
		Payload: payload,
	}

	return cqe
}
