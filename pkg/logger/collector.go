package logger

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"slices"
	"sync"
	"time"
)

// Publisher ships aggregated entries, typically to a Kafka topic.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload any) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush period, 30s when unset
	CountThreshold int           // distinct entries that force an early flush, 100 when unset
	PublishTimeout time.Duration
	Topic          string
	Publisher      Publisher
}

// AggregatedLogEntry counts repeats of one log line between flushes.
type AggregatedLogEntry struct {
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
	Caller    string         `json:"caller"`
	Count     int            `json:"count"`
	FirstSeen time.Time      `json:"first_seen"`
	LastSeen  time.Time      `json:"last_seen"`
}

// LogCollector folds identical log lines together and publishes them in
// batches.
type LogCollector struct {
	cfg CollectionConfig

	mu      sync.Mutex
	entries map[uint64]*AggregatedLogEntry
	closed  bool

	done chan struct{}
	wg   sync.WaitGroup
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	cfg := *config
	if cfg.TimeInterval <= 0 {
		cfg.TimeInterval = 30 * time.Second
	}
	if cfg.CountThreshold <= 0 {
		cfg.CountThreshold = 100
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 10 * time.Second
	}
	c := &LogCollector{
		cfg:     cfg,
		entries: make(map[uint64]*AggregatedLogEntry),
		done:    make(chan struct{}),
	}
	c.wg.Add(1)
	go c.loop()
	return c
}

// AddLog records one occurrence. It is a no-op after Close.
func (c *LogCollector) AddLog(level, message string, fields map[string]any, caller string) {
	now := time.Now()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
		return
	}
	c.entries[key] = &AggregatedLogEntry{
		Level:     level,
		Message:   message,
		Fields:    fields,
		Caller:    caller,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
	if len(c.entries) >= c.cfg.CountThreshold {
		c.flushLocked()
	}
}

func entryKey(level, message string, fields map[string]any, caller string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s\x00%s", level, message, caller)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "\x00%s=%v", k, fields[k])
	}
	return h.Sum64()
}

func (c *LogCollector) loop() {
	defer c.wg.Done()
	t := time.NewTicker(c.cfg.TimeInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.mu.Lock()
			c.flushLocked()
			c.mu.Unlock()
		case <-c.done:
			c.mu.Lock()
			c.flushLocked()
			c.mu.Unlock()
			return
		}
	}
}

// flushLocked hands the current batch to a publishing goroutine. c.mu must be held.
func (c *LogCollector) flushLocked() {
	if len(c.entries) == 0 || c.cfg.Publisher == nil {
		return
	}
	batch := make([]AggregatedLogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		batch = append(batch, *e)
	}
	slices.SortFunc(batch, func(a, b AggregatedLogEntry) int { return a.FirstSeen.Compare(b.FirstSeen) })
	c.entries = make(map[uint64]*AggregatedLogEntry)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.PublishTimeout)
		defer cancel()
		if err := c.cfg.Publisher.PublishMessage(ctx, c.cfg.Topic, batch); err != nil {
			// the logger cannot report its own sink failures
			fmt.Fprintf(os.Stderr, "log collector: publish to %s failed: %v\n", c.cfg.Topic, err)
		}
	}()
}

// Close flushes what is pending and waits for in-flight publishes.
func (c *LogCollector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)
	c.wg.Wait()
}
