package gonfalon

import (
	"time"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
	"github.com/OrlandoBitencourt/gonfalon/internal/localcache"
)

// Flag is a feature flag as returned by the service.
type Flag struct {
	Key               string    `json:"key"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	Enabled           bool      `json:"enabled"`
	RolloutPercentage float64   `json:"rollout_percentage"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// FlagSpec describes a flag to create.
type FlagSpec struct {
	Key               string  `json:"key"`
	Name              string  `json:"name"`
	Description       string  `json:"description,omitempty"`
	Enabled           bool    `json:"enabled"`
	RolloutPercentage float64 `json:"rollout_percentage"`
}

// FlagUpdate is a partial update; nil fields are left untouched.
type FlagUpdate struct {
	Name              *string  `json:"name,omitempty"`
	Description       *string  `json:"description,omitempty"`
	Enabled           *bool    `json:"enabled,omitempty"`
	RolloutPercentage *float64 `json:"rollout_percentage,omitempty"`
}

// Result is the outcome of evaluating one flag for one entity.
type Result struct {
	FlagKey string
	Enabled bool
	Reason  string
}

// Outcome is one entry of a bulk evaluation: a result, or the error that
// key produced (typically a NotFoundError for unknown keys).
type Outcome struct {
	Result *Result
	Err    error
}

// AuditChange is the before/after value of one field in an audit record.
type AuditChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// AuditRecord is one entry of a flag's mutation history, most recent
// first as returned by AuditLog.
type AuditRecord struct {
	ID        string                 `json:"id"`
	FlagKey   string                 `json:"flag_key"`
	Operation string                 `json:"operation"`
	Changes   map[string]AuditChange `json:"changed_fields,omitempty"`
	Actor     string                 `json:"actor,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// CacheStats describes the SDK's local cache.
type CacheStats = localcache.Stats

// Evaluation reason codes, mirroring the service's fixed enumeration.
const (
	ReasonFlagDisabled = string(domain.ReasonFlagDisabled)
	ReasonRolloutMatch = string(domain.ReasonRolloutMatch)
	ReasonRolloutMiss  = string(domain.ReasonRolloutMiss)
)

func toResult(r domain.EvaluationResult) *Result {
	return &Result{
		FlagKey: r.FlagKey,
		Enabled: r.Enabled,
		Reason:  string(r.Reason),
	}
}
