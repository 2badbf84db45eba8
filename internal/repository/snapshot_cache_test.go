package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ConsensusBot/internal/domain/models"
	"ConsensusBot/pkg/cache"
)

func TestSnapshotCache(t *testing.T) {
	ctx := context.Background()
	mc := cache.NewMemoryCache()
	defer mc.Close()
	s := NewSnapshotCache(mc, time.Minute)

	_, ok, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	sigs, err := s.RecentSignals(ctx)
	require.NoError(t, err)
	assert.Empty(t, sigs)

	snap := models.PerformanceSnapshot{TotalTrades: 3, WinRate: 2.0 / 3, Balance: 10010}
	require.NoError(t, s.SaveSnapshot(ctx, snap))
	got, ok, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, snap, got)

	in := []models.Signal{{Symbol: "BTC", Action: models.Buy, Confidence: 0.93, Strategy: models.ConsensusStrategy}}
	require.NoError(t, s.SaveSignals(ctx, in))
	sigs, err = s.RecentSignals(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, sigs)
}
