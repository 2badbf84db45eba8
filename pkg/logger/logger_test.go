package logger

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	l, err := New(&Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	l.With("engine").Info("trade settled",
		String("symbol", "AAPL"),
		Float64("pnl", 12.5),
		Int("today_trades", 3),
		Error(errors.New("none")),
	)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	sc := bufio.NewScanner(f)
	require.True(t, sc.Scan())

	var line map[string]any
	require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "trade settled", line["message"])
	assert.Equal(t, "engine", line["component"])
	assert.Equal(t, "AAPL", line["symbol"])
	assert.Equal(t, 12.5, line["pnl"])
	assert.Equal(t, 3.0, line["today_trades"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}

type capturePublisher struct {
	mu     sync.Mutex
	topic  string
	logs   []AggregatedLogEntry
	called int
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.called++
	if entries, ok := payload.([]AggregatedLogEntry); ok {
		p.logs = append(p.logs, entries...)
	}
	return nil
}

func (p *capturePublisher) snapshot() (string, []AggregatedLogEntry, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.topic, append([]AggregatedLogEntry(nil), p.logs...), p.called
}

func TestCollectorAggregatesDuplicateErrors(t *testing.T) {
	pub := &capturePublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "bot.logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("venue timeout", String("symbol", "AAPL"))
	}
	l.Warn("not collected")
	l.RemoveCollector()

	topic, logs, calls := pub.snapshot()
	assert.Equal(t, "bot.logs", topic)
	assert.Equal(t, 1, calls)
	require.Len(t, logs, 1)
	assert.Equal(t, "venue timeout", logs[0].Message)
	assert.Equal(t, 3, logs[0].Count)
	assert.Equal(t, "AAPL", logs[0].Fields["symbol"])
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "t", Publisher: pub})
	defer c.Close()

	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")

	require.Eventually(t, func() bool {
		_, logs, _ := pub.snapshot()
		return len(logs) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestCollectorIgnoresLogsAfterClose(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, Topic: "t", Publisher: pub})
	c.AddLog("error", "feed stalled", map[string]any{"symbol": "MSFT"}, "feed.go:10")
	c.AddLog("error", "feed stalled", map[string]any{"symbol": "AAPL"}, "feed.go:10")
	c.Close()
	c.Close()
	c.AddLog("error", "late", nil, "feed.go:11")

	_, logs, calls := pub.snapshot()
	assert.Equal(t, 1, calls)
	require.Len(t, logs, 2, "different fields are separate entries")
	assert.Equal(t, "MSFT", logs[0].Fields["symbol"])
}

func TestErrorFieldInCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Topic: "t", Publisher: pub})
	l.Error("order rejected", Error(errors.New("insufficient buying power")), Duration("took", 1500*time.Millisecond))
	l.RemoveCollector()

	_, logs, _ := pub.snapshot()
	require.Len(t, logs, 1)
	assert.Equal(t, "insufficient buying power", logs[0].Fields["error"])
	assert.Equal(t, int64(1500), logs[0].Fields["took"])
	assert.Contains(t, logs[0].Caller, "pkg/logger/logger_test.go:")
}
