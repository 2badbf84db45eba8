package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"ConsensusBot/internal/domain/models"
	domrepo "ConsensusBot/internal/domain/repository"
	"ConsensusBot/pkg/util"
)

// ReplayFeed serves a recorded price history. Every Sample call advances the
// symbol's cursor by one bar; History returns the bars before the cursor.
type ReplayFeed struct {
	mu     sync.Mutex
	bars   map[string][]models.Candle
	cursor map[string]int
	now    time.Time
}

var _ domrepo.QuoteFeed = (*ReplayFeed)(nil)

// NewReplayFeed builds a feed from in-memory bars, sorted per symbol by time.
func NewReplayFeed(bars []models.Candle) *ReplayFeed {
	f := &ReplayFeed{bars: make(map[string][]models.Candle), cursor: make(map[string]int)}
	for _, c := range bars {
		f.bars[c.Symbol] = append(f.bars[c.Symbol], c)
	}
	for _, s := range f.bars {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Bucket.Before(s[j].Bucket) })
		if f.now.IsZero() || s[0].Bucket.Before(f.now) {
			f.now = s[0].Bucket
		}
	}
	return f
}

// LoadReplayCSV reads timestamp,symbol,open,high,low,close,volume rows.
// A header row is skipped when present.
func LoadReplayCSV(path string) (*ReplayFeed, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay csv: %w", err)
	}
	defer fh.Close()
	bars, err := ParseReplayCSV(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewReplayFeed(bars), nil
}

// ParseReplayCSV decodes replay rows from r.
func ParseReplayCSV(r io.Reader) ([]models.Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 7
	cr.TrimLeadingSpace = true

	var out []models.Candle
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line == 1 && strings.EqualFold(rec[0], "timestamp") {
			continue
		}
		c, err := parseBar(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func parseBar(rec []string) (models.Candle, error) {
	ts, ok := util.ParseTime(rec[0])
	if !ok {
		return models.Candle{}, fmt.Errorf("bad timestamp %q", rec[0])
	}
	var v [5]float64
	for i := range v {
		f, err := strconv.ParseFloat(rec[i+2], 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("column %d: %w", i+3, err)
		}
		v[i] = f
	}
	return models.Candle{
		Bucket: ts.UTC(),
		Symbol: strings.ToUpper(strings.TrimSpace(rec[1])),
		Open:   v[0],
		High:   v[1],
		Low:    v[2],
		Close:  v[3],
		Volume: v[4],
	}, nil
}

// Symbols lists the symbols present in the recording.
func (f *ReplayFeed) Symbols() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.bars))
	for s := range f.bars {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Sample returns the bar at the cursor and advances it. Once every bar has
// been served the error wraps ErrFeedExhausted.
func (f *ReplayFeed) Sample(_ context.Context, symbol string) (models.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bars, ok := f.bars[symbol]
	if !ok {
		return models.Sample{}, fmt.Errorf("unknown symbol %s: %w", symbol, models.ErrInsufficientData)
	}
	i := f.cursor[symbol]
	if i >= len(bars) {
		return models.Sample{}, fmt.Errorf("%s: %w", symbol, models.ErrFeedExhausted)
	}
	f.cursor[symbol] = i + 1
	b := bars[i]
	if b.Bucket.After(f.now) {
		f.now = b.Bucket
	}
	return models.Sample{Symbol: symbol, Price: b.Close, Volume: b.Volume, Timestamp: b.Bucket}, nil
}

// History returns up to n bars strictly before the last served sample.
func (f *ReplayFeed) History(_ context.Context, symbol string, n int) ([]models.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	end := f.cursor[symbol] - 1
	if end <= 0 || n <= 0 {
		return nil, nil
	}
	start := max(0, end-n)
	return append([]models.Candle(nil), f.bars[symbol][start:end]...), nil
}

// Now is the replay clock: the latest bar time served so far, starting at the
// earliest recorded bar.
func (f *ReplayFeed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Exhausted reports whether every symbol has been fully replayed.
func (f *ReplayFeed) Exhausted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s, bars := range f.bars {
		if f.cursor[s] < len(bars) {
			return false
		}
	}
	return true
}

// SkipUntil drops unserved bars stamped before t and moves the clock to t.
// Replays use it to jump over the rest of a halted trading day.
func (f *ReplayFeed) SkipUntil(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s, bars := range f.bars {
		i := f.cursor[s]
		for i < len(bars) && bars[i].Bucket.Before(t) {
			i++
		}
		f.cursor[s] = i
	}
	if t.After(f.now) {
		f.now = t
	}
}
