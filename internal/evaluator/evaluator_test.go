package evaluator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

func flag(enabled bool, percentage float64) domain.Flag {
	return domain.Flag{
		Key:               "test-flag",
		Name:              "Test Flag",
		Enabled:           enabled,
		RolloutPercentage: percentage,
	}
}

func TestEvaluateDisabledFlag(t *testing.T) {
	e := New()

	// Disabled wins over any rollout percentage, including 100.
	for _, p := range []float64{0, 50, 100} {
		result := e.Evaluate(flag(false, p), "user-1")
		assert.False(t, result.Enabled)
		assert.Equal(t, domain.ReasonFlagDisabled, result.Reason)
		assert.Equal(t, "test-flag", result.FlagKey)
	}
}

func TestEvaluateZeroPercent(t *testing.T) {
	e := New()

	for i := 0; i < 1000; i++ {
		result := e.Evaluate(flag(true, 0), fmt.Sprintf("user-%d", i))
		assert.False(t, result.Enabled)
		assert.Equal(t, domain.ReasonRolloutMiss, result.Reason)
	}
}

func TestEvaluateHundredPercent(t *testing.T) {
	e := New()

	for i := 0; i < 1000; i++ {
		result := e.Evaluate(flag(true, 100), fmt.Sprintf("user-%d", i))
		assert.True(t, result.Enabled)
		assert.Equal(t, domain.ReasonRolloutMatch, result.Reason)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	e := New()
	f := flag(true, 37.5)

	first := e.Evaluate(f, "user-42")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, e.Evaluate(f, "user-42"))
	}
}

func TestEvaluateMonotonicRollout(t *testing.T) {
	e := New()

	// Raising the percentage never turns an entity off: whoever is in
	// at 20% stays in at 40%, 60%, 80%, 100%.
	steps := []float64{20, 40, 60, 80, 100}
	for i := 0; i < 200; i++ {
		entity := fmt.Sprintf("user-%d", i)
		wasEnabled := false
		for _, p := range steps {
			result := e.Evaluate(flag(true, p), entity)
			if wasEnabled {
				assert.True(t, result.Enabled,
					"entity %s lost access when rollout grew to %v%%", entity, p)
			}
			wasEnabled = result.Enabled
		}
	}
}

func TestEvaluateGlobalCoin(t *testing.T) {
	e := New()
	f := flag(true, 50)

	// Empty entity is a fixed coin per flag: always the same outcome.
	first := e.Evaluate(f, "")
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, e.Evaluate(f, ""))
	}
	assert.Contains(t,
		[]domain.Reason{domain.ReasonRolloutMatch, domain.ReasonRolloutMiss},
		first.Reason)
}

func TestEvaluateFractionalPercentages(t *testing.T) {
	e := New()

	// Two-decimal precision is meaningful: 0.01% and 99.99% are not
	// collapsed to the 0 and 100 boundaries.
	lowOn := 0
	highOff := 0
	const n = 10000
	for i := 0; i < n; i++ {
		entity := fmt.Sprintf("user-%d", i)
		if e.Evaluate(flag(true, 0.01), entity).Enabled {
			lowOn++
		}
		if !e.Evaluate(flag(true, 99.99), entity).Enabled {
			highOff++
		}
	}
	assert.Less(t, lowOn, 25)
	assert.Less(t, highOff, 25)
}
