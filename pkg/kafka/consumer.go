package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"

	applogger "ConsensusBot/pkg/logger"
)

// ErrSkip marks a message that cannot succeed on retry (e.g. it does not
// decode). Handlers wrap it to send the message straight to the DLQ.
var ErrSkip = errors.New("kafka: skip message")

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerOption configures Consumer.
type ConsumerOption func(*ConsumerConfig)

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	StartOffset string // "earliest" or "latest" for a new group
	WorkerCount int
	BufferSize  int
	RetryMax    int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	MinBytes    int
	MaxBytes    int
	Logger      *applogger.Logger
	Registerer  prometheus.Registerer
}

// WithConsumerBrokers sets Kafka brokers.
func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Brokers = brokers
	}
}

// WithConsumerGroupID sets consumer group ID.
func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.GroupID = groupID
	}
}

// WithConsumerStartOffset sets where a new group starts reading.
func WithConsumerStartOffset(offset string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.StartOffset = offset
	}
}

// WithConsumerWorkers sets number of worker goroutines.
func WithConsumerWorkers(count int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if count > 0 {
			c.WorkerCount = count
		}
	}
}

// WithConsumerRetry configures retry attempts and backoff range.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax = max
		c.BackoffMin = backoffMin
		c.BackoffMax = backoffMax
	}
}

// WithConsumerDLQ sets a Kafka topic name for DLQ.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.DLQTopic = topic
	}
}

// WithConsumerFetch sets fetch min/max bytes.
func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.MinBytes = minBytes
		c.MaxBytes = maxBytes
	}
}

// WithConsumerBufferSize sets the internal channel buffer size.
func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

// WithConsumerLogger sets the logger.
func WithConsumerLogger(l *applogger.Logger) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Logger = l
	}
}

// WithConsumerRegisterer sets where consumer metrics are registered.
func WithConsumerRegisterer(reg prometheus.Registerer) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Registerer = reg
	}
}

// Consumer reads registered topics and hands messages to a worker pool.
// Messages of one partition are handled one at a time, in order.
type Consumer struct {
	cfg       *ConsumerConfig
	log       *applogger.Logger
	metrics   *consumerMetrics
	handlers  map[string]MessageHandler
	readers   map[string]*kafka.Reader
	msgChan   chan *message
	dlq       *kafka.Writer
	partLocks sync.Map // "topic/partition" -> *sync.Mutex

	cancel   context.CancelFunc
	readWG   sync.WaitGroup
	workWG   sync.WaitGroup
	running  atomic.Bool
	stopOnce sync.Once
}

type message struct {
	topic string
	km    kafka.Message
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "consensusbot",
		StartOffset: "latest",
		WorkerCount: 1,
		BufferSize:  256,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = applogger.NewNop()
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}

	c := &Consumer{
		cfg:      cfg,
		log:      cfg.Logger.With("kafka_consumer"),
		metrics:  newConsumerMetrics(cfg.Registerer),
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]*kafka.Reader),
		msgChan:  make(chan *message, cfg.BufferSize),
	}

	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}

	return c, nil
}

// RegisterHandler registers a message handler for a specific topic.
// Handlers must be registered before Start.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.log.Warn("handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// Running reports whether the consumer has started and not been stopped.
func (c *Consumer) Running() bool { return c.running.Load() }

// Start creates one reader per registered topic and starts the workers.
// It returns immediately; Stop or cancelling ctx ends consumption.
func (c *Consumer) Start(ctx context.Context) error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}
	if !c.running.CompareAndSwap(false, true) {
		return fmt.Errorf("consumer already started")
	}
	ctx, c.cancel = context.WithCancel(ctx)

	start := kafka.LastOffset
	if c.cfg.StartOffset == "earliest" {
		start = kafka.FirstOffset
	}
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:     c.cfg.Brokers,
			Topic:       topic,
			GroupID:     c.cfg.GroupID,
			StartOffset: start,
			MinBytes:    c.cfg.MinBytes,
			MaxBytes:    c.cfg.MaxBytes,
		})
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.workWG.Add(1)
		go c.messageWorker(ctx)
	}
	for topic, reader := range c.readers {
		c.readWG.Add(1)
		go c.consumeMessages(ctx, topic, reader)
	}

	c.log.Info("kafka consumer started",
		applogger.Int("topics", len(c.readers)),
		applogger.Int("workers", c.cfg.WorkerCount),
		applogger.String("group", c.cfg.GroupID),
	)
	return nil
}

// Stop stops reading, lets the workers finish queued messages and closes
// the readers. It gives up waiting when ctx ends.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error

	c.stopOnce.Do(func() {
		if c.cancel == nil {
			return
		}
		c.cancel()
		c.readWG.Wait()
		close(c.msgChan)

		done := make(chan struct{})
		go func() {
			c.workWG.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			stopErr = fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
		}

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				c.log.Warn("reader close error", applogger.String("topic", topic), applogger.Error(err))
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.log.Warn("dlq close error", applogger.Error(err))
			}
		}
		c.running.Store(false)
		c.log.Info("kafka consumer stopped")
	})

	return stopErr
}

func (c *Consumer) consumeMessages(ctx context.Context, topic string, reader *kafka.Reader) {
	defer c.readWG.Done()

	for {
		km, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("fetch error", applogger.String("topic", topic), applogger.Error(err))
			if !sleepCtx(ctx, c.cfg.BackoffMax) {
				return
			}
			continue
		}

		// Block rather than drop; the reader stops fetching while workers catch up.
		select {
		case c.msgChan <- &message{topic: topic, km: km}:
			c.metrics.queueFullness.WithLabelValues(topic).Set(float64(len(c.msgChan)) / float64(cap(c.msgChan)))
		case <-ctx.Done():
			return
		}
	}
}

// messageWorker processes messages until the channel is closed.
func (c *Consumer) messageWorker(ctx context.Context) {
	defer c.workWG.Done()

	for msg := range c.msgChan {
		handler, ok := c.handlers[msg.topic]
		if !ok {
			continue
		}
		start := time.Now()
		err := c.handleWithRetry(ctx, handler, msg)
		result := "ok"
		if err != nil {
			result = "error"
			c.log.Error("message handling failed",
				applogger.String("topic", msg.topic),
				applogger.Int("partition", msg.km.Partition),
				applogger.Int64("offset", msg.km.Offset),
				applogger.Error(err),
			)
			if c.dlq != nil {
				c.deadLetter(msg, err)
			}
		}

		// Commit on success or after DLQ so a poison message is not replayed forever.
		if err == nil || c.dlq != nil {
			c.commitWithRetry(msg, 3)
		}
		c.metrics.messages.WithLabelValues(msg.topic, result).Inc()
		c.metrics.handleLatency.WithLabelValues(msg.topic).Observe(time.Since(start).Seconds())
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, handler MessageHandler, msg *message) (err error) {
	lock := c.partitionLock(msg.topic, msg.km.Partition)
	lock.Lock()
	defer lock.Unlock()

	for attempt := 1; ; attempt++ {
		err = c.safeHandle(ctx, handler, msg.km.Value)
		if err == nil || errors.Is(err, ErrSkip) || attempt > c.cfg.RetryMax {
			return err
		}
		if !sleepCtx(ctx, backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)) {
			return err
		}
	}
}

func (c *Consumer) safeHandle(ctx context.Context, handler MessageHandler, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler for %s: %v: %w", handler.Topic(), r, ErrSkip)
		}
	}()
	return handler.Handle(ctx, data)
}

func (c *Consumer) deadLetter(msg *message, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Topic: c.cfg.DLQTopic,
		Key:   msg.km.Key,
		Value: msg.km.Value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "source_topic", Value: []byte(msg.topic)},
			{Key: "error", Value: []byte(cause.Error())},
		},
	})
	if err != nil {
		c.log.Error("dlq write failed", applogger.String("dlq", c.cfg.DLQTopic), applogger.Error(err))
	}
}

// commitWithRetry commits a single message offset with bounded retries.
func (c *Consumer) commitWithRetry(msg *message, max int) {
	reader := c.readers[msg.topic]
	if reader == nil {
		return
	}
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, msg.km)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Warn("commit failed", applogger.String("topic", msg.topic), applogger.Int("attempts", max), applogger.Error(err))
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	key := fmt.Sprintf("%s/%d", topic, partition)
	l, _ := c.partLocks.LoadOrStore(key, &sync.Mutex{})
	return l.(*sync.Mutex)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	if attempt > 30 {
		attempt = 30
	}
	// exponential backoff base
	exp := min * time.Duration(1<<uint(attempt-1))
	if exp <= 0 || exp > max {
		exp = max
	}
	// jitter up to 50%
	jitter := time.Duration(rand.Int63n(int64(exp)/2 + 1))
	return exp - jitter
}

type consumerMetrics struct {
	messages      *prometheus.CounterVec
	queueFullness *prometheus.GaugeVec
	handleLatency *prometheus.HistogramVec
}

func newConsumerMetrics(reg prometheus.Registerer) *consumerMetrics {
	return &consumerMetrics{
		messages: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "consensusbot_kafka_consumer_messages_total", Help: "Messages handled by result"},
			[]string{"topic", "result"},
		)),
		queueFullness: register(reg, prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "consensusbot_kafka_consumer_queue_fullness", Help: "Queue utilization ratio (len/cap)"},
			[]string{"topic"},
		)),
		handleLatency: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "consensusbot_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		)),
	}
}

// register reuses an already registered collector with the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
