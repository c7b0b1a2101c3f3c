package operation

import (
	"encoding/json"
)

// OperationRecord is the row representation of an operation used by the
// persistence backends.
type OperationRecord struct {
	Id         string
	Kind       string
	Status     Status
	Message    string
	Meta       []byte
	Payload    []byte
	Error      string
	TotalSteps int
	Attempt    int64
	CreatedOn  int64
	UpdatedOn  int64
}

func NewRecord(o *Operation) (*OperationRecord, error) {
	meta, err := json.Marshal(o.Meta)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if o.Payload != nil {
		payload, err = json.Marshal(o.Payload)
		if err != nil {
			return nil, err
		}
	}

	return &OperationRecord{
		Id:         o.Id,
		Kind:       o.Kind,
		Status:     o.Status,
		Message:    o.Message,
		Meta:       meta,
		Payload:    payload,
		Error:      o.Error,
		TotalSteps: o.TotalSteps,
		Attempt:    o.Attempt,
		CreatedOn:  o.CreatedOn,
		UpdatedOn:  o.UpdatedOn,
	}, nil
}

func (r *OperationRecord) Operation() (*Operation, error) {
	var meta map[string]string
	if r.Meta != nil {
		if err := json.Unmarshal(r.Meta, &meta); err != nil {
			return nil, err
		}
	}

	var payload any
	if r.Payload != nil {
		if err := json.Unmarshal(r.Payload, &payload); err != nil {
			return nil, err
		}
	}

	return &Operation{
		Id:         r.Id,
		Kind:       r.Kind,
		Status:     r.Status,
		Message:    r.Message,
		Meta:       meta,
		Payload:    payload,
		Error:      r.Error,
		TotalSteps: r.TotalSteps,
		Attempt:    r.Attempt,
		CreatedOn:  r.CreatedOn,
		UpdatedOn:  r.UpdatedOn,
	}, nil
}
