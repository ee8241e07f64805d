package model

import (
	"encoding/json"
	"strings"
	"time"
)

type Task struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	CompletionDate *time.Time `json:"completion_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsComplete reports whether the task carries a completion date.
func (t Task) IsComplete() bool {
	return t.CompletionDate != nil
}

// Optional marks whether a field was supplied by the client at all.
// A JSON null still counts as supplied.
type Optional[T any] struct {
	Value T
	Set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	return json.Unmarshal(b, &o.Value)
}

// TaskParams is the inbound payload for create and update.
type TaskParams struct {
	Name           Optional[string]     `json:"name"`
	Description    Optional[string]     `json:"description"`
	CompletionDate Optional[*time.Time] `json:"completion_date"`
}

// Apply copies the supplied fields onto t and leaves the rest untouched.
func (p TaskParams) Apply(t Task) Task {
	if p.Name.Set {
		t.Name = p.Name.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.CompletionDate.Set {
		t.CompletionDate = p.CompletionDate.Value
	}
	return t
}

// BlankName reports a supplied name that is empty after trimming.
func (p TaskParams) BlankName() bool {
	return p.Name.Set && strings.TrimSpace(p.Name.Value) == ""
}
