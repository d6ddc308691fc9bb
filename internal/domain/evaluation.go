package domain

// Reason explains the outcome of a flag evaluation.
type Reason string

const (
	// ReasonFlagDisabled means the flag's enabled switch is off; the rollout
	// percentage was not consulted.
	ReasonFlagDisabled Reason = "FLAG_DISABLED"

	// ReasonRolloutMatch means the entity's bucket fell inside the rollout window.
	ReasonRolloutMatch Reason = "ROLLOUT_MATCH"

	// ReasonRolloutMiss means the entity's bucket fell outside the rollout window.
	ReasonRolloutMiss Reason = "ROLLOUT_MISS"
)

// EvaluationResult is the transient outcome of evaluating one flag for one
// entity. It is never persisted; callers get a fresh value per evaluation.
type EvaluationResult struct {
	FlagKey string `json:"key"`
	Enabled bool   `json:"enabled"`
	Reason  Reason `json:"reason"`
}
