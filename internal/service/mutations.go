package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/OrlandoBitencourt/gonfalon/internal/audit"
	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

// Every mutation follows the same sequence: persist, invalidate the shared
// cache, append to the audit log, and only then return. Invalidation before
// acknowledgement keeps an update-then-read from ever observing pre-update
// data through the cache; a failed audit append fails the whole call.

// CreateFlag validates the spec, persists the new flag, and audits it.
func (s *Service) CreateFlag(ctx context.Context, spec domain.FlagSpec, actor string) (*domain.Flag, error) {
	flag, err := domain.NewFlag(spec, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, *flag); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, flag.Key); err != nil {
		return nil, err
	}

	record := audit.Record{
		ID:        uuid.New().String(),
		FlagKey:   flag.Key,
		Operation: audit.OperationCreated,
		Changes: map[string]audit.Change{
			"name":               {New: flag.Name},
			"description":        {New: flag.Description},
			"enabled":            {New: flag.Enabled},
			"rollout_percentage": {New: flag.RolloutPercentage},
		},
		Actor:     actor,
		Timestamp: s.clock.Now(),
	}
	if err := s.audit.Append(ctx, record); err != nil {
		return nil, err
	}

	s.tel.RecordMutation(ctx, flag.Key, string(audit.OperationCreated))
	s.log.Info("flag created", "flag", flag.Key, "actor", actor)
	return flag, nil
}

// UpdateFlag applies a partial update to an existing flag.
func (s *Service) UpdateFlag(ctx context.Context, key string, upd domain.FlagUpdate, actor string) (*domain.Flag, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	before, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	after, err := domain.ApplyUpdate(*before, upd, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, *after); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		return nil, err
	}

	record := audit.Record{
		ID:        uuid.New().String(),
		FlagKey:   key,
		Operation: audit.OperationUpdated,
		Changes:   diffFlags(*before, *after),
		Actor:     actor,
		Timestamp: s.clock.Now(),
	}
	if err := s.audit.Append(ctx, record); err != nil {
		return nil, err
	}

	s.tel.RecordMutation(ctx, key, string(audit.OperationUpdated))
	s.log.Info("flag updated", "flag", key, "actor", actor)
	return after, nil
}

// DeleteFlag removes a flag and audits a snapshot of its final state.
func (s *Service) DeleteFlag(ctx context.Context, key string, actor string) error {
	before, err := s.store.Get(ctx, key)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		return err
	}

	record := audit.Record{
		ID:        uuid.New().String(),
		FlagKey:   key,
		Operation: audit.OperationDeleted,
		Changes: map[string]audit.Change{
			"name":               {Old: before.Name},
			"description":        {Old: before.Description},
			"enabled":            {Old: before.Enabled},
			"rollout_percentage": {Old: before.RolloutPercentage},
		},
		Actor:     actor,
		Timestamp: s.clock.Now(),
	}
	if err := s.audit.Append(ctx, record); err != nil {
		return err
	}

	s.tel.RecordMutation(ctx, key, string(audit.OperationDeleted))
	s.log.Info("flag deleted", "flag", key, "actor", actor)
	return nil
}

// AuditLog returns the most recent audit records for a flag (or all flags
// when flagKey is empty), newest first.
func (s *Service) AuditLog(ctx context.Context, flagKey string, limit int) ([]audit.Record, error) {
	if limit < 1 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	return s.audit.List(ctx, flagKey, limit)
}

// diffFlags records only the fields that actually changed.
func diffFlags(before, after domain.Flag) map[string]audit.Change {
	changes := make(map[string]audit.Change)
	if before.Name != after.Name {
		changes["name"] = audit.Change{Old: before.Name, New: after.Name}
	}
	if before.Description != after.Description {
		changes["description"] = audit.Change{Old: before.Description, New: after.Description}
	}
	if before.Enabled != after.Enabled {
		changes["enabled"] = audit.Change{Old: before.Enabled, New: after.Enabled}
	}
	if before.RolloutPercentage != after.RolloutPercentage {
		changes["rollout_percentage"] = audit.Change{Old: before.RolloutPercentage, New: after.RolloutPercentage}
	}
	return changes
}
