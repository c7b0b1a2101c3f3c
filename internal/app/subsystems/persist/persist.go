package persist

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/opstrack/opstrack/internal/kernel/store"
	"github.com/opstrack/opstrack/internal/kernel/t_op"
	"github.com/opstrack/opstrack/pkg/operation"
)

// Persister stores the operations that must survive a restart.
type Persister interface {
	String() string
	Start() error
	Stop() error
	Save(*operation.Operation) error
	Delete(string) error
	Load() ([]*operation.Operation, error)
}

// Retained reports whether an operation is persisted: attempts still in
// flight and failures the user has not dismissed yet.
func Retained(o *operation.Operation) bool {
	return o.Status.In(operation.Pending | operation.Failure)
}

// Config

type Config struct {
	Size int `flag:"size" desc:"persistence buffered channel size" default:"1000"`
}

type write struct {
	id string
	op *operation.Operation
}

// Writer mirrors store writes into a Persister on its own goroutine so
// that slow storage only applies backpressure once its queue is full.
type Writer struct {
	persister Persister
	ch        chan *write
	wg        sync.WaitGroup
}

func NewWriter(persister Persister, config *Config) *Writer {
	return &Writer{
		persister: persister,
		ch:        make(chan *write, config.Size),
	}
}

func (w *Writer) String() string {
	return fmt.Sprintf("Writer(persister=%s)", w.persister)
}

func (w *Writer) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		for write := range w.ch {
			var err error
			if write.op != nil {
				err = w.persister.Save(write.op)
			} else {
				err = w.persister.Delete(write.id)
			}

			if err != nil {
				slog.Error("failed to persist operation", "id", write.id, "persister", w.persister, "err", err)
			}
		}
	}()
}

// Stop flushes the queued writes, it must be called after the system
// loop has returned.
func (w *Writer) Stop() {
	close(w.ch)
	w.wg.Wait()
}

// Listen is a system listener, retained records are saved and every
// other record is deleted.
func (w *Writer) Listen(e t_op.Event, s *store.Store) {
	id := e.OperationId()

	o, ok := s.Get(id)
	if ok && Retained(o) {
		w.ch <- &write{id: id, op: o}
	} else {
		w.ch <- &write{id: id}
	}
}
