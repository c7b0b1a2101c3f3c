package store

import (
	"fmt"
	"maps"

	"github.com/opstrack/opstrack/internal/kernel/t_op"
	"github.com/opstrack/opstrack/internal/util"
	"github.com/opstrack/opstrack/pkg/operation"
)

// Store is an immutable, versioned mapping from operation id to
// operation record. Every transition returns a new store and leaves the
// receiver untouched, so a *Store may be shared freely between
// goroutines.
type Store struct {
	version uint64
	records map[string]*operation.Operation
}

func New() *Store {
	return &Store{records: map[string]*operation.Operation{}}
}

func (s *Store) String() string {
	return fmt.Sprintf("Store(version=%d, size=%d)", s.version, len(s.records))
}

func (s *Store) Version() uint64 {
	return s.version
}

func (s *Store) Len() int {
	return len(s.records)
}

func (s *Store) Get(id string) (*operation.Operation, bool) {
	o, ok := s.records[id]
	if !ok {
		return nil, false
	}

	return o.Copy(), true
}

// All returns a copy of every record ordered by id.
func (s *Store) All() []*operation.Operation {
	all := make([]*operation.Operation, 0, len(s.records))
	for _, o := range util.OrderedRange(s.records) {
		all = append(all, o.Copy())
	}

	return all
}

// Range calls f for every record ordered by id until f returns false.
// The records passed to f are shared and must not be modified.
func (s *Store) Range(f func(*operation.Operation) bool) {
	for _, o := range util.OrderedRange(s.records) {
		if !f(o) {
			return
		}
	}
}

// Upsert merges patch into the record for id, creating the record if
// absent. A patch with status pending always starts a fresh record.
func (s *Store) Upsert(id string, patch *operation.Patch) *Store {
	util.Assert(id != "", "id must be set")
	util.Assert(patch != nil, "patch must not be nil")

	prev, ok := s.records[id]

	var next *operation.Operation
	if patch.Status != nil && *patch.Status == operation.Pending {
		next = &operation.Operation{
			Id:         id,
			TotalSteps: 1,
			CreatedOn:  patch.Time,
		}
		if ok {
			next.Attempt = prev.Attempt + 1
		} else {
			next.Attempt = 1
		}
	} else if ok {
		next = prev.Copy()
	} else {
		next = &operation.Operation{
			Id:         id,
			TotalSteps: 1,
			CreatedOn:  patch.Time,
		}
	}

	if patch.Kind != nil {
		next.Kind = *patch.Kind
	}
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.Message != nil {
		next.Message = *patch.Message
	}
	if patch.Meta != nil {
		next.Meta = maps.Clone(patch.Meta)
	}
	if patch.Payload != nil {
		next.Payload = patch.Payload
	}
	if patch.Error != nil {
		next.Error = *patch.Error
	}
	if patch.TotalSteps != nil {
		next.TotalSteps = *patch.TotalSteps
	}
	if patch.Attempt != nil {
		next.Attempt = *patch.Attempt
	}

	switch next.Status {
	case operation.Success:
		next.Error = ""
	case operation.Failure:
		next.Payload = nil
	}

	next.UpdatedOn = patch.Time

	records := maps.Clone(s.records)
	records[id] = next

	return &Store{
		version: s.version + 1,
		records: records,
	}
}

func (s *Store) Remove(id string) *Store {
	if _, ok := s.records[id]; !ok {
		return s
	}

	records := maps.Clone(s.records)
	delete(records, id)

	return &Store{
		version: s.version + 1,
		records: records,
	}
}

// Apply reduces a lifecycle event into the store. When discardStale is
// set, terminal events for an attempt other than the current one are
// dropped; otherwise the most recently emitted event wins. The boolean
// result reports whether the store changed.
func Apply(s *Store, e t_op.Event, discardStale bool) (*Store, bool) {
	switch e := e.(type) {
	case *t_op.Pending:
		return s.Upsert(e.Id, &operation.Patch{
			Kind:       &e.Kind,
			Status:     util.ToPointer(operation.Pending),
			Message:    &e.Message,
			Meta:       e.Meta,
			TotalSteps: nonZero(e.TotalSteps),
			Time:       e.Time,
		}), true

	case *t_op.Succeeded:
		if discardStale && stale(s, e.Id, e.Attempt) {
			return s, false
		}

		return s.Upsert(e.Id, &operation.Patch{
			Status:  util.ToPointer(operation.Success),
			Message: &e.Message,
			Payload: e.Payload,
			Attempt: &e.Attempt,
			Time:    e.Time,
		}), true

	case *t_op.Failed:
		var cause string
		if e.Err != nil {
			cause = e.Err.Error()
		}

		if discardStale && stale(s, e.Id, e.Attempt) {
			return s, false
		}

		return s.Upsert(e.Id, &operation.Patch{
			Status:  util.ToPointer(operation.Failure),
			Message: &e.Message,
			Error:   &cause,
			Attempt: &e.Attempt,
			Time:    e.Time,
		}), true

	case *t_op.Cleared:
		next := s.Remove(e.Id)
		return next, next != s

	default:
		util.Assert(false, fmt.Sprintf("invalid event: %T", e))
		return s, false
	}
}

func stale(s *Store, id string, attempt int64) bool {
	o, ok := s.records[id]
	return !ok || o.Attempt != attempt || o.Status != operation.Pending
}

func nonZero(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
