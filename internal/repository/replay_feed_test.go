package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ConsensusBot/internal/domain/models"
)

const replayCSV = `timestamp,symbol,open,high,low,close,volume
2025-06-02T14:01:00Z,btcusdt,101,102,100,101.5,12
2025-06-02T14:00:00Z,btcusdt,100,101,99,100.5,10
2025-06-02T14:00:00Z,ETHUSDT,50,51,49,50.5,3
2025-06-02T14:02:00Z,btcusdt,101.5,103,101,102,9
`

func TestParseReplayCSV(t *testing.T) {
	bars, err := ParseReplayCSV(strings.NewReader(replayCSV))
	require.NoError(t, err)
	require.Len(t, bars, 4)
	assert.Equal(t, "BTCUSDT", bars[0].Symbol)
	assert.Equal(t, 101.5, bars[0].Close)

	_, err = ParseReplayCSV(strings.NewReader("2025-06-02T14:00:00Z,X,1,1,1,oops,1\n"))
	assert.ErrorContains(t, err, "line 1")

	_, err = ParseReplayCSV(strings.NewReader("yesterday,X,1,1,1,1,1\n"))
	assert.ErrorContains(t, err, "bad timestamp")
}

func TestReplayFeed_CursorAndHistory(t *testing.T) {
	ctx := context.Background()
	bars, err := ParseReplayCSV(strings.NewReader(replayCSV))
	require.NoError(t, err)
	f := NewReplayFeed(bars)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, f.Symbols())

	h, err := f.History(ctx, "BTCUSDT", 10)
	require.NoError(t, err)
	assert.Empty(t, h)

	s, err := f.Sample(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 100.5, s.Price, "bars are replayed in time order")
	assert.Equal(t, time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC), s.Timestamp)

	_, _ = f.Sample(ctx, "BTCUSDT")
	s, err = f.Sample(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 102.0, s.Price)

	h, err = f.History(ctx, "BTCUSDT", 10)
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, 101.5, h[1].Close)

	_, err = f.Sample(ctx, "BTCUSDT")
	assert.ErrorIs(t, err, models.ErrFeedExhausted)
	assert.False(t, f.Exhausted())

	_, _ = f.Sample(ctx, "ETHUSDT")
	assert.True(t, f.Exhausted())

	_, err = f.Sample(ctx, "DOGE")
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestReplayFeed_ClockFollowsServedBars(t *testing.T) {
	ctx := context.Background()
	bars, err := ParseReplayCSV(strings.NewReader(replayCSV))
	require.NoError(t, err)
	f := NewReplayFeed(bars)

	start := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, start, f.Now())
	_, _ = f.Sample(ctx, "BTCUSDT")
	_, _ = f.Sample(ctx, "BTCUSDT")
	assert.Equal(t, start.Add(time.Minute), f.Now())
	_, _ = f.Sample(ctx, "ETHUSDT")
	assert.Equal(t, start.Add(time.Minute), f.Now(), "clock never runs backwards")
}

func TestReplayFeed_SkipUntil(t *testing.T) {
	ctx := context.Background()
	bars, err := ParseReplayCSV(strings.NewReader(replayCSV))
	require.NoError(t, err)
	f := NewReplayFeed(bars)

	cut := time.Date(2025, 6, 2, 14, 1, 30, 0, time.UTC)
	f.SkipUntil(cut)
	assert.Equal(t, cut, f.Now())

	s, err := f.Sample(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 102.0, s.Price)
	assert.True(t, f.Exhausted(), "ETHUSDT had no bars after the cut")
}
