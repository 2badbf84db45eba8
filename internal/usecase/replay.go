package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"ConsensusBot/internal/domain/models"
	"ConsensusBot/pkg/logger"
)

// ReplaySource is a recorded feed that doubles as the engine clock.
type ReplaySource interface {
	Clock
	Exhausted() bool
	SkipUntil(t time.Time)
}

// ReplayResult summarises a finished replay.
type ReplayResult struct {
	Cycles      int                        `json:"cycles"`
	FailedCycle int                        `json:"failed_cycles"`
	Halts       int                        `json:"halts"`
	Performance models.PerformanceSnapshot `json:"performance"`
	Stats       models.DetailedStats       `json:"stats"`
}

// RunReplay drives e cycle by cycle until src is exhausted. After a daily
// halt the rest of that day (in loc) is skipped and the engine is restarted,
// mirroring a live bot that resumes the next morning. Cycle errors such as
// missing history early in the recording are counted, not fatal.
func RunReplay(ctx context.Context, e *Engine, src ReplaySource, loc *time.Location, log *logger.Logger) (ReplayResult, error) {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With("replay")

	var halts atomic.Int32
	unsubscribe := e.SubscribeEvents(func(ev models.EngineEvent) {
		if ev.Kind == models.EventHalt {
			halts.Add(1)
		}
	})
	defer unsubscribe()

	var res ReplayResult
	seen := int32(0)
	for !src.Exhausted() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if n := halts.Load(); n != seen {
			seen = n
			next := nextDay(src.Now(), loc)
			log.Info("daily halt, skipping to next session", logger.String("resume", next.Format(time.RFC3339)))
			src.SkipUntil(next)
			continue
		}
		if e.State() != models.StateRunning {
			if err := e.Activate(); err != nil && !errors.Is(err, models.ErrAlreadyRunning) {
				return res, err
			}
		}
		if err := e.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.FailedCycle++
		}
		res.Cycles++
	}
	e.Stop()

	res.Halts = int(halts.Load())
	res.Performance = e.Performance()
	res.Stats = e.DetailedStats()
	log.Info("replay finished",
		logger.Int("cycles", res.Cycles),
		logger.Int("halts", res.Halts),
		logger.Int("trades", res.Performance.TotalTrades),
		logger.Float64("profit", res.Performance.TotalProfit),
	)
	return res, nil
}

func nextDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}
