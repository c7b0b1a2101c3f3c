package notification

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Notification struct {
	Id        string `json:"id"`
	Status    Status `json:"status"`
	Text      string `json:"text"`
	CreatedOn int64  `json:"createdOn"`
}

func (n *Notification) String() string {
	return fmt.Sprintf(
		"Notification(id=%s, status=%s, text=%s)",
		n.Id,
		n.Status,
		n.Text,
	)
}

type Status int

const (
	Success Status = iota
	Error
	Info
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Error:
		return "error"
	case Info:
		return "info"
	default:
		panic("invalid status")
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var status string
	if err := json.Unmarshal(data, &status); err != nil {
		return err
	}

	switch strings.ToLower(status) {
	case "success":
		*s = Success
	case "error":
		*s = Error
	case "info":
		*s = Info
	default:
		return fmt.Errorf("invalid status '%s'", status)
	}

	return nil
}
