package t_op

import (
	"fmt"

	"github.com/opstrack/opstrack/pkg/operation"
)

type Kind int

const (
	Run Kind = iota
	Clear
)

func (k Kind) String() string {
	switch k {
	case Run:
		return "run"
	case Clear:
		return "clear"
	default:
		panic("invalid kind")
	}
}

// Request is a submission to the system loop.
type Request struct {
	Kind  Kind
	Run   *RunRequest
	Clear *ClearRequest
}

func (r *Request) String() string {
	switch r.Kind {
	case Run:
		return fmt.Sprintf("Request(kind=run, id=%s, message=%s)", r.Run.Id, r.Run.Message)
	case Clear:
		return fmt.Sprintf("Request(kind=clear, id=%s)", r.Clear.Id)
	default:
		return "Request()"
	}
}

type RunRequest struct {
	Id             string
	Kind           string
	Message        string
	SuccessMessage string
	FailureMessage string
	Meta           map[string]string
	TotalSteps     int
	Notify         bool
	Task           Task
}

type ClearRequest struct {
	Id string
}

// Response carries the record a request produced, for run requests this
// is the terminal record written by the attempt.
type Response struct {
	Kind      Kind
	Operation *operation.Operation
}
