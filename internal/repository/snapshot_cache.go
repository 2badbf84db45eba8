package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ConsensusBot/internal/domain/models"
	domrepo "ConsensusBot/internal/domain/repository"
	"ConsensusBot/pkg/cache"
)

const (
	snapshotKey = "performance:latest"
	signalsKey  = "signals:recent"
)

// SnapshotCache keeps the latest performance snapshot and recent signals in a
// cache so dashboards can read them without touching the engine.
type SnapshotCache struct {
	c   cache.Service
	ttl time.Duration
}

var _ domrepo.SnapshotStore = (*SnapshotCache)(nil)

func NewSnapshotCache(c cache.Service, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{c: c, ttl: ttl}
}

func (s *SnapshotCache) SaveSnapshot(ctx context.Context, snap models.PerformanceSnapshot) error {
	if err := s.c.Set(ctx, snapshotKey, snap, s.ttl); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotCache) LatestSnapshot(ctx context.Context) (models.PerformanceSnapshot, bool, error) {
	var snap models.PerformanceSnapshot
	err := s.c.Get(ctx, snapshotKey, &snap)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		return models.PerformanceSnapshot{}, false, nil
	case err != nil:
		return models.PerformanceSnapshot{}, false, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, true, nil
}

func (s *SnapshotCache) SaveSignals(ctx context.Context, signals []models.Signal) error {
	if err := s.c.Set(ctx, signalsKey, signals, s.ttl); err != nil {
		return fmt.Errorf("save signals: %w", err)
	}
	return nil
}

func (s *SnapshotCache) RecentSignals(ctx context.Context) ([]models.Signal, error) {
	var out []models.Signal
	if err := s.c.Get(ctx, signalsKey, &out); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("recent signals: %w", err)
	}
	return out, nil
}
