package bus

import (
	"fmt"

	"github.com/opstrack/opstrack/internal/kernel/t_op"
)

type Input interface {
	t_op.Submission | t_op.Request
}

type Output interface {
	t_op.Completion | t_op.Response
}

type SQE[I Input, O Output] struct {
	Id         string
	Submission *I
	Callback   func(*O, error)
}

func (sqe *SQE[I, O]) String() string {
	return fmt.Sprintf("SQE(id=%s, submission=%v)", sqe.Id, sqe.Submission)
}

type CQE[I Input, O Output] struct {
	Id         string
	Completion *O
	Callback   func(*O, error)

	// failure of the submission itself, for tasks this is the task error
	Error error
}

func (cqe *CQE[I, O]) String() string {
	return fmt.Sprintf("CQE(id=%s, completion=%v, error=%v)", cqe.Id, cqe.Completion, cqe.Error)
}
