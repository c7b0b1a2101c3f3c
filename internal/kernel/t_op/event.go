package t_op

import (
	"fmt"
)

// Event is a lifecycle event for one attempt of a tracked operation. The
// set of variants is closed, see the unexported marker method.
type Event interface {
	fmt.Stringer
	OperationId() string
	event()
}

type Pending struct {
	Id         string
	Kind       string
	Message    string
	Meta       map[string]string
	TotalSteps int
	Time       int64
}

type Succeeded struct {
	Id      string
	Attempt int64
	Message string
	Payload any
	Time    int64
}

type Failed struct {
	Id      string
	Attempt int64
	Message string
	Err     error
	Time    int64
}

type Cleared struct {
	Id string
}

func (e *Pending) OperationId() string   { return e.Id }
func (e *Succeeded) OperationId() string { return e.Id }
func (e *Failed) OperationId() string    { return e.Id }
func (e *Cleared) OperationId() string   { return e.Id }

func (*Pending) event()   {}
func (*Succeeded) event() {}
func (*Failed) event()    {}
func (*Cleared) event()   {}

func (e *Pending) String() string {
	return fmt.Sprintf("Pending(id=%s, message=%s, meta=%v)", e.Id, e.Message, e.Meta)
}

func (e *Succeeded) String() string {
	return fmt.Sprintf("Succeeded(id=%s, attempt=%d, message=%s)", e.Id, e.Attempt, e.Message)
}

func (e *Failed) String() string {
	return fmt.Sprintf("Failed(id=%s, attempt=%d, message=%s, err=%v)", e.Id, e.Attempt, e.Message, e.Err)
}

func (e *Cleared) String() string {
	return fmt.Sprintf("Cleared(id=%s)", e.Id)
}
