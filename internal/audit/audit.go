// Package audit keeps an append-only trail of flag mutations. Records are
// written synchronously with the mutation that triggers them: a failed
// append fails the mutation call, so a flag never changes without a trace.
package audit

import (
	"context"
	"time"
)

// Operation is the kind of mutation a record captures.
type Operation string

const (
	OperationCreated Operation = "created"
	OperationUpdated Operation = "updated"
	OperationDeleted Operation = "deleted"
)

// Change is the before/after value of one field.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Record is immutable once written. Insertion sequence within a single
// process is the only ordering guarantee beyond the timestamp.
type Record struct {
	ID        string            `json:"id"`
	FlagKey   string            `json:"flag_key"`
	Operation Operation         `json:"operation"`
	Changes   map[string]Change `json:"changed_fields,omitempty"`
	Actor     string            `json:"actor,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Log is the audit trail contract.
type Log interface {
	// Append writes one record. Errors propagate to the mutation caller.
	Append(ctx context.Context, record Record) error

	// List returns records most-recent-first, bounded by limit. An empty
	// flagKey returns records for all flags.
	List(ctx context.Context, flagKey string, limit int) ([]Record, error)

	// Close releases backing resources.
	Close() error
}
