package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Type string

const (
	TypeSendMail           Type = "send_mail"
	TypePurgeExpiredTokens Type = "purge_expired_tokens"
)

// Task is one stream entry. Redis stream fields are flat strings, so the
// typed payload travels JSON encoded next to its type.
type Task struct {
	Type    Type
	Payload []byte
}

type SendMail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

var ErrMalformedTask = errors.New("malformed task")

func NewSendMail(m SendMail) (Task, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return Task{}, fmt.Errorf("encode send_mail: %w", err)
	}
	return Task{Type: TypeSendMail, Payload: payload}, nil
}

func NewPurgeExpiredTokens() Task {
	return Task{Type: TypePurgeExpiredTokens, Payload: []byte("{}")}
}

func (t Task) Values() map[string]any {
	return map[string]any{
		"type":    string(t.Type),
		"payload": string(t.Payload),
	}
}

// FromValues rebuilds a task read back from a stream.
func FromValues(values map[string]any) (Task, error) {
	typ, ok := values["type"].(string)
	if !ok || typ == "" {
		return Task{}, fmt.Errorf("%w: missing type", ErrMalformedTask)
	}
	payload, _ := values["payload"].(string)
	if payload == "" {
		payload = "{}"
	}
	return Task{Type: Type(typ), Payload: []byte(payload)}, nil
}

func (t Task) Decode(out any) error {
	if err := json.Unmarshal(t.Payload, out); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformedTask, t.Type, err)
	}
	return nil
}
