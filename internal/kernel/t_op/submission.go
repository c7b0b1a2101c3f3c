package t_op

import (
	"context"
	"fmt"
)

// Task is the fallible asynchronous work wrapped by a tracked operation,
// typically a transaction submitted through an external client.
type Task func(context.Context) (any, error)

type Submission struct {
	Id      string
	Kind    string
	Attempt int64
	Task    Task
}

func (s *Submission) String() string {
	return fmt.Sprintf("Submission(id=%s, kind=%s, attempt=%d)", s.Id, s.Kind, s.Attempt)
}

type Completion struct {
	Id      string
	Attempt int64
	Payload any
}

func (c *Completion) String() string {
	return fmt.Sprintf("Completion(id=%s, attempt=%d)", c.Id, c.Attempt)
}
