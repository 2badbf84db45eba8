package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ConsensusBot/internal/domain/models"
	"ConsensusBot/pkg/logger"
)

func TestExecutorRetriesOnce(t *testing.T) {
	venue := &scriptedVenue{script: []venueStep{{err: errors.New("timeout")}, win(12)}}
	x := NewExecutor(venue, nopMetrics{}, logger.NewNop())

	out, err := x.Execute(context.Background(), models.Order{ID: "o-1", Symbol: "AAPL"})
	require.NoError(t, err)
	assert.True(t, out.Filled)
	assert.Equal(t, 12.0, out.RealizedPnL)
	assert.Equal(t, 2, venue.calls())
}

func TestExecutorGivesUpAfterSecondFailure(t *testing.T) {
	boom := errors.New("rejected")
	venue := &scriptedVenue{script: []venueStep{{err: boom}, {err: boom}, win(1)}}
	x := NewExecutor(venue, nopMetrics{}, logger.NewNop())

	_, err := x.Execute(context.Background(), models.Order{ID: "o-2", Symbol: "MSFT"})
	require.Error(t, err)
	var xe *models.ExecutionError
	require.True(t, errors.As(err, &xe))
	assert.Equal(t, "o-2", xe.OrderID)
	assert.Equal(t, 2, xe.Attempts)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, venue.calls())
}

func TestExecutorNoRetryAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	venue := &scriptedVenue{script: []venueStep{{err: context.Canceled}, win(1)}}
	x := NewExecutor(venue, nopMetrics{}, logger.NewNop())

	_, err := x.Execute(ctx, models.Order{ID: "o-3"})
	require.Error(t, err)
	assert.Equal(t, 1, venue.calls())
}
