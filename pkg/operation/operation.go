package operation

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

type Operation struct {
	Id         string            `json:"id"`
	Kind       string            `json:"kind,omitempty"`
	Status     Status            `json:"status"`
	Message    string            `json:"message"`
	Meta       map[string]string `json:"meta,omitempty"`
	Payload    any               `json:"payload,omitempty"`
	Error      string            `json:"error,omitempty"`
	TotalSteps int               `json:"totalSteps"`
	Attempt    int64             `json:"attempt"`
	CreatedOn  int64             `json:"createdOn"`
	UpdatedOn  int64             `json:"updatedOn"`
}

func (o *Operation) String() string {
	return fmt.Sprintf(
		"Operation(id=%s, kind=%s, status=%s, message=%s, meta=%v, attempt=%d)",
		o.Id,
		o.Kind,
		o.Status,
		o.Message,
		o.Meta,
		o.Attempt,
	)
}

// Copy returns a copy that shares nothing mutable with o except the
// payload, which is treated as an immutable value once written.
func (o *Operation) Copy() *Operation {
	c := *o
	c.Meta = maps.Clone(o.Meta)
	return &c
}

func (o *Operation) Terminal() bool {
	return o.Status.In(Success | Failure)
}

// NewId derives an operation id from an action-type tag and the parts
// that identify its target, e.g. NewId("vote", "P1", "0xABC") ==
// "vote-p1-0xabc".
func NewId(kind string, parts ...string) string {
	id := make([]string, 0, len(parts)+1)
	id = append(id, kind)
	for _, p := range parts {
		id = append(id, strings.ToLower(p))
	}

	return strings.Join(id, "-")
}

type Status int

const (
	Pending Status = 1 << iota // 1
	Success                    // 2
	Failure                    // 4
)

const Any = Pending | Success | Failure

func (s Status) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Success:
		return "SUCCESS"
	case Failure:
		return "FAILURE"
	default:
		panic("invalid status")
	}
}

func (s Status) In(mask Status) bool {
	return s&mask != 0
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var status string
	if err := json.Unmarshal(data, &status); err != nil {
		return err
	}

	v, err := ParseStatus(status)
	if err != nil {
		return err
	}

	*s = v
	return nil
}

func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(s) {
	case "PENDING":
		return Pending, nil
	case "SUCCESS":
		return Success, nil
	case "FAILURE":
		return Failure, nil
	default:
		return 0, fmt.Errorf("invalid status '%s'", s)
	}
}

// Patch is a partial update applied to an operation record, nil fields
// keep their current value.
type Patch struct {
	Kind       *string
	Status     *Status
	Message    *string
	Meta       map[string]string
	Payload    any
	Error      *string
	TotalSteps *int
	Attempt    *int64
	Time       int64
}

func (p *Patch) String() string {
	var status string
	if p.Status != nil {
		status = p.Status.String()
	}

	return fmt.Sprintf("Patch(status=%s, meta=%v)", status, p.Meta)
}
