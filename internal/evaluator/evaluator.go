// Package evaluator applies flag configuration to an entity and produces an
// evaluation outcome with a reason code.
package evaluator

import (
	"github.com/OrlandoBitencourt/gonfalon/internal/bucket"
	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

// Evaluator decides whether a flag is on for an entity. It is stateless and
// safe for concurrent use; it never mutates a Flag.
type Evaluator struct{}

// New creates an Evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

// Evaluate computes the outcome for one flag and one entity.
//
// A disabled flag short-circuits before the rollout percentage is consulted.
// Otherwise the entity's bucket is compared against the rollout threshold:
// rollout 0 yields false for every entity and rollout 100 yields true for
// every entity, since buckets live in [0, Space) and the threshold is
// exclusive.
func (e *Evaluator) Evaluate(flag domain.Flag, entityID string) domain.EvaluationResult {
	if !flag.Enabled {
		return domain.EvaluationResult{
			FlagKey: flag.Key,
			Enabled: false,
			Reason:  domain.ReasonFlagDisabled,
		}
	}

	b := bucket.Bucket(flag.Key, entityID)
	if float64(b) < bucket.Threshold(flag.RolloutPercentage) {
		return domain.EvaluationResult{
			FlagKey: flag.Key,
			Enabled: true,
			Reason:  domain.ReasonRolloutMatch,
		}
	}

	return domain.EvaluationResult{
		FlagKey: flag.Key,
		Enabled: false,
		Reason:  domain.ReasonRolloutMiss,
	}
}
