// Package event defines the change events a change-feed source produces and
// the predicate evaluator consumes, plus their JSON and MessagePack wire
// codecs.
package event

import (
	"fmt"
	"time"

	"github.com/roach88/schemaforge/internal/value"
)

// Op is the kind of change.
type Op string

const (
	Created Op = "created"
	Updated Op = "updated"
	Deleted Op = "deleted"
)

// ParseOp resolves an operation name.
func ParseOp(s string) (Op, error) {
	switch Op(s) {
	case Created, Updated, Deleted:
		return Op(s), nil
	default:
		return "", fmt.Errorf("unknown change operation %q", s)
	}
}

// ChangeEvent is a single create, update or delete of one entity instance.
// Before is set for updates and deletes, After for creates and updates.
type ChangeEvent struct {
	ID        string       `json:"id,omitempty" yaml:"id,omitempty"`
	Entity    string       `json:"entity" yaml:"entity"`
	Op        Op           `json:"op" yaml:"op"`
	Before    value.Object `json:"before,omitempty" yaml:"before,omitempty"`
	After     value.Object `json:"after,omitempty" yaml:"after,omitempty"`
	Timestamp time.Time    `json:"timestamp" yaml:"timestamp"`
}

// Validate checks that the snapshots required by Op are present.
func (e *ChangeEvent) Validate() error {
	if e.Entity == "" {
		return fmt.Errorf("change event %s: missing entity", e.ID)
	}
	if _, err := ParseOp(string(e.Op)); err != nil {
		return fmt.Errorf("change event %s: %w", e.ID, err)
	}
	if e.Op != Created && e.Before == nil {
		return fmt.Errorf("change event %s: %s without before snapshot", e.ID, e.Op)
	}
	if e.Op != Deleted && e.After == nil {
		return fmt.Errorf("change event %s: %s without after snapshot", e.ID, e.Op)
	}
	return nil
}

// Snapshot returns the record a subscription filter is matched against:
// the new state for creates and updates, the last state for deletes.
func (e *ChangeEvent) Snapshot() value.Object {
	if e.Op == Deleted {
		return e.Before
	}
	return e.After
}

// UnixSeconds is the event timestamp as fractional seconds, the form the
// subscription payload's timestamp field carries.
func (e *ChangeEvent) UnixSeconds() float64 {
	return float64(e.Timestamp.UnixNano()) / float64(time.Second)
}
