package domain

import (
	"fmt"
	"regexp"
	"time"
)

// Flag is a named, persisted boolean-rollout configuration.
// A Flag obtained from NewFlag or ApplyUpdate is always valid; validation
// happens on construction, not on use.
type Flag struct {
	Key               string    `json:"key"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	Enabled           bool      `json:"enabled"`
	RolloutPercentage float64   `json:"rollout_percentage"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// keyPattern accepts lowercase alphanumerics plus hyphen and underscore.
var keyPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// reservedKeys are route segments that would collide with the HTTP API.
var reservedKeys = map[string]bool{
	"flags":    true,
	"evaluate": true,
	"audit":    true,
	"cache":    true,
	"stats":    true,
	"health":   true,
	"healthz":  true,
}

const maxKeyLength = 255

// ValidateKey checks a flag key against the key format rules.
func ValidateKey(key string) error {
	if key == "" {
		return NewValidationError("flag key cannot be empty")
	}
	if len(key) > maxKeyLength {
		return NewValidationError(fmt.Sprintf("flag key exceeds %d characters", maxKeyLength))
	}
	if !keyPattern.MatchString(key) {
		return NewValidationError(fmt.Sprintf("flag key %q must contain only lowercase letters, digits, hyphen or underscore", key))
	}
	if reservedKeys[key] {
		return NewValidationError(fmt.Sprintf("flag key %q is reserved", key))
	}
	return nil
}

func validateRollout(p float64) error {
	if p < 0 || p > 100 {
		return NewValidationError(fmt.Sprintf("rollout percentage %.2f must be between 0 and 100", p))
	}
	return nil
}

// FlagSpec describes a flag to be created.
type FlagSpec struct {
	Key               string  `json:"key"`
	Name              string  `json:"name"`
	Description       string  `json:"description,omitempty"`
	Enabled           bool    `json:"enabled"`
	RolloutPercentage float64 `json:"rollout_percentage"`
}

// Validate checks the spec against the flag invariants.
func (s FlagSpec) Validate() error {
	if err := ValidateKey(s.Key); err != nil {
		return err
	}
	if s.Name == "" {
		return NewValidationError("flag name cannot be empty")
	}
	return validateRollout(s.RolloutPercentage)
}

// NewFlag constructs a valid Flag from a spec, or fails with a ValidationError.
func NewFlag(spec FlagSpec, now time.Time) (*Flag, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Flag{
		Key:               spec.Key,
		Name:              spec.Name,
		Description:       spec.Description,
		Enabled:           spec.Enabled,
		RolloutPercentage: spec.RolloutPercentage,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// FlagUpdate is a partial update; nil fields are left untouched.
type FlagUpdate struct {
	Name              *string  `json:"name,omitempty"`
	Description       *string  `json:"description,omitempty"`
	Enabled           *bool    `json:"enabled,omitempty"`
	RolloutPercentage *float64 `json:"rollout_percentage,omitempty"`
}

// Validate checks the populated fields against the flag invariants.
func (u FlagUpdate) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return NewValidationError("flag name cannot be empty")
	}
	if u.RolloutPercentage != nil {
		return validateRollout(*u.RolloutPercentage)
	}
	return nil
}

// IsEmpty reports whether the update changes nothing.
func (u FlagUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Enabled == nil && u.RolloutPercentage == nil
}

// ApplyUpdate returns a copy of flag with the update applied and UpdatedAt bumped.
func ApplyUpdate(flag Flag, u FlagUpdate, now time.Time) (*Flag, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	updated := flag
	if u.Name != nil {
		updated.Name = *u.Name
	}
	if u.Description != nil {
		updated.Description = *u.Description
	}
	if u.Enabled != nil {
		updated.Enabled = *u.Enabled
	}
	if u.RolloutPercentage != nil {
		updated.RolloutPercentage = *u.RolloutPercentage
	}
	updated.UpdatedAt = now
	return &updated, nil
}
