package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	drepo "ConsensusBot/internal/domain/repository"
	domsvc "ConsensusBot/internal/domain/service"
	"ConsensusBot/internal/handler/api"
	mid "ConsensusBot/internal/middleware"
	internalrepo "ConsensusBot/internal/repository"
	"ConsensusBot/internal/service/finnhub"
	"ConsensusBot/internal/service/venue"
	"ConsensusBot/internal/services/analytics"
	"ConsensusBot/internal/services/strategy"
	"ConsensusBot/internal/usecase"
	"ConsensusBot/pkg/cache"
	pkgch "ConsensusBot/pkg/clickhouse"
	"ConsensusBot/pkg/config"
	xhttp "ConsensusBot/pkg/http"
	pkgkafka "ConsensusBot/pkg/kafka"
	applogger "ConsensusBot/pkg/logger"
	"ConsensusBot/pkg/metrics"
	"ConsensusBot/pkg/server"
	"ConsensusBot/pkg/util"
)

// Feed is the quote source chosen by feed.type. Live is set for the
// websocket-fed aggregator and Replay for a recorded CSV, which also
// drives the engine clock.
type Feed struct {
	Quotes drepo.QuoteFeed
	Live   *internalrepo.LiveFeed
	Replay *internalrepo.ReplayFeed
}

// ProvideRegistry creates the registry for engine, HTTP and consumer metrics.
// It is served at /metrics together with the default registry, which holds
// the runtime, producer and analytics collectors.
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) drepo.Metrics {
	return metrics.New(reg)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if cfg.ClickHouse.EnsureSchema {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, pkgch.Schema(cfg.ClickHouse.Database)); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}

	return client, func() { _ = client.Close() }, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, func() { _ = producer.Close() }, nil
}

// ProvideEventPublisher wraps the producer for engine events and aggregated logs.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) *internalrepo.KafkaEventPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideLogger builds the application logger. With Kafka enabled, error
// logs are aggregated and published to kafka.logs_topic.
func ProvideLogger(cfg *config.Config, pub *internalrepo.KafkaEventPublisher) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if pub == nil {
		return l, func() {}, nil
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   cfg.Logging.CollectInterval,
		CountThreshold: cfg.Logging.CollectThreshold,
		Topic:          cfg.Kafka.LogsTopic,
		Publisher:      pub,
	})
	return l, l.RemoveCollector, nil
}

// ProvideSnapshotStore caches dashboard views in Redis behind a short
// in-memory layer, or returns nil when Redis is disabled.
func ProvideSnapshotStore(cfg *config.Config) (drepo.SnapshotStore, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	remote, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	layered := cache.NewLayeredCache(remote, cache.WithLayeredMemoryTTL(cfg.Redis.MemoryTTL))
	return internalrepo.NewSnapshotCache(layered, cfg.Redis.TTL), func() { _ = layered.Close() }, nil
}

// ProvideTradeJournal stores settled trades in ClickHouse, or returns nil without it.
func ProvideTradeJournal(cfg *config.Config, ch *pkgch.Client) drepo.TradeJournal {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHTradeJournal(ch.DB(), cfg.ClickHouse.Database)
}

// ProvideCandleStore reads persisted bars, or returns nil without ClickHouse.
func ProvideCandleStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) *internalrepo.CHCandleStore {
	if ch == nil {
		return nil
	}
	store := internalrepo.NewCHCandleStore(ch.DB(), cfg.ClickHouse.Database)
	store.SetFeedTimeframe(cfg.Feed.Timeframe)
	store.SetLogger(l.With("candle_store"))
	return store
}

// ProvideFeed selects the quote source by feed.type.
func ProvideFeed(cfg *config.Config, store *internalrepo.CHCandleStore, l *applogger.Logger) (Feed, error) {
	switch cfg.Feed.Type {
	case "replay":
		rf, err := internalrepo.LoadReplayCSV(cfg.Feed.ReplayCSV)
		if err != nil {
			return Feed{}, err
		}
		return Feed{Quotes: rf, Replay: rf}, nil
	case "clickhouse":
		if store == nil {
			return Feed{}, fmt.Errorf("feed clickhouse: clickhouse is disabled")
		}
		return Feed{Quotes: store}, nil
	default:
		opts := []internalrepo.LiveFeedOption{internalrepo.WithMaxBars(max(2*cfg.Engine.HistoryBars, cfg.Feed.BackfillBars))}
		if store != nil {
			opts = append(opts, internalrepo.WithBackfill(store))
		}
		live := internalrepo.NewLiveFeed(cfg.Feed.BarWidth, opts...)
		if store != nil && cfg.Feed.BackfillBars > 0 {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := live.Backfill(ctx, cfg.Engine.Symbols, cfg.Feed.BackfillBars); err != nil {
				l.Warn("backfill failed, starting cold", applogger.Error(err))
			}
		}
		return Feed{Quotes: live, Live: live}, nil
	}
}

// ProvideTickSource feeds the live aggregator through the realtime pipeline,
// from the Finnhub websocket or from a Kafka ticks topic. It returns nil for
// the other feeds.
func ProvideTickSource(cfg *config.Config, feed Feed, reg *prometheus.Registry, m drepo.Metrics, l *applogger.Logger) (usecase.TickSource, error) {
	if feed.Live == nil {
		return nil, nil
	}
	pipe := mid.NewRealtimePipeline(feed.Live, m,
		mid.WithMaxRPS(cfg.Feed.PipelineMaxRPS),
		mid.WithBufferSize(cfg.Feed.PipelineBuffer),
	)
	if cfg.Feed.Source == "kafka" {
		kc := cfg.Kafka.Consumer
		consumer, err := pkgkafka.NewConsumer(
			pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithConsumerGroupID(kc.GroupID),
			pkgkafka.WithConsumerStartOffset(kc.StartOffset),
			pkgkafka.WithConsumerWorkers(kc.Workers),
			pkgkafka.WithConsumerBufferSize(kc.BufferSize),
			pkgkafka.WithConsumerRetry(kc.RetryMax, kc.BackoffMin, kc.BackoffMax),
			pkgkafka.WithConsumerDLQ(kc.DLQTopic),
			pkgkafka.WithConsumerFetch(kc.MinBytes, kc.MaxBytes),
			pkgkafka.WithConsumerLogger(l),
			pkgkafka.WithConsumerRegisterer(reg),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		return usecase.NewKafkaTickSource(consumer, cfg.Kafka.TicksTopic, pipe, m, l), nil
	}
	stream := finnhub.New(
		cfg.Finnhub.APIKey,
		cfg.Finnhub.WebSocketURL,
		cfg.Engine.Symbols,
		cfg.Finnhub.ReconnectDelay,
		cfg.Finnhub.PingInterval,
		l,
	)
	return usecase.NewTickCollector(stream, pipe, m, l), nil
}

// ProvideVenue creates the execution venue named by venue.type.
func ProvideVenue(cfg *config.Config, feed Feed) (drepo.ExecutionVenue, error) {
	if cfg.Venue.Type == "rest" {
		v, err := venue.NewREST(venue.RESTConfig{
			BaseURL:         cfg.Venue.REST.BaseURL,
			APIKey:          cfg.Venue.REST.APIKey,
			Timeout:         cfg.Venue.REST.Timeout,
			RPS:             cfg.Venue.REST.RPS,
			Burst:           cfg.Venue.REST.Burst,
			BreakerFailures: cfg.Venue.REST.BreakerFailures,
			BreakerTimeout:  cfg.Venue.REST.BreakerTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("rest venue: %w", err)
		}
		return v, nil
	}
	return venue.NewPaper(feed.Quotes,
		venue.WithPoll(cfg.Venue.Paper.PollInterval),
		venue.WithMaxHold(cfg.Venue.Paper.MaxHold),
		venue.WithMaxSteps(cfg.Venue.Paper.MaxSteps),
	), nil
}

// ProvideClassifier returns the analytics-service pattern classifier when
// enabled, otherwise the built-in rule classifier.
func ProvideClassifier(cfg *config.Config) domsvc.PatternClassifier {
	if cfg.Analytics.Enabled {
		base := analytics.NewHTTPServiceBase(cfg.Analytics.PythonServiceURL, cfg.Analytics.Timeout)
		return analytics.NewHTTPPatternClassifier(base)
	}
	return strategy.NewRuleClassifier()
}

// ProvideEngine builds the stopped engine.
func ProvideEngine(
	cfg *config.Config,
	feed Feed,
	v drepo.ExecutionVenue,
	classifier domsvc.PatternClassifier,
	m drepo.Metrics,
	l *applogger.Logger,
) (*usecase.Engine, error) {
	loc, ok := util.LoadLocation(cfg.Engine.Timezone)
	if !ok {
		l.Warn("unknown timezone, using UTC", applogger.String("timezone", cfg.Engine.Timezone))
	}
	opts := []usecase.EngineOption{
		usecase.WithClassifier(classifier),
		usecase.WithMetrics(m),
		usecase.WithLogger(l),
		usecase.WithLocation(loc),
		usecase.WithStartingBalance(cfg.Engine.StartingBalance),
		usecase.WithCadence(cfg.Engine.ScanInterval, cfg.Engine.SymbolDelay, cfg.Engine.ErrorBackoff),
		usecase.WithHistoryBars(cfg.Engine.HistoryBars),
	}
	if feed.Replay != nil {
		opts = append(opts, usecase.WithClock(feed.Replay))
	}
	e, err := usecase.NewEngine(cfg.EngineConfig(), feed.Quotes, v, cfg.Engine.Symbols, opts...)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return e, nil
}

// ProvideEventSink delivers engine events to whichever sinks are configured.
func ProvideEventSink(
	journal drepo.TradeJournal,
	pub *internalrepo.KafkaEventPublisher,
	snapshots drepo.SnapshotStore,
	engine *usecase.Engine,
	m drepo.Metrics,
	l *applogger.Logger,
) *usecase.EventSink {
	var opts []usecase.SinkOption
	if journal != nil {
		opts = append(opts, usecase.WithJournal(journal))
	}
	if pub != nil {
		opts = append(opts, usecase.WithPublisher(pub))
	}
	if snapshots != nil {
		opts = append(opts, usecase.WithSnapshotStore(snapshots, engine.RecentSignals))
	}
	return usecase.NewEventSink(m, l, opts...)
}

// ProvideTradesUseCase exposes the journal to the API.
func ProvideTradesUseCase(journal drepo.TradeJournal) *usecase.TradesUseCase {
	return usecase.NewTradesUseCase(journal)
}

// ProvideHTTPHandler registers the engine API and its health checks.
func ProvideHTTPHandler(
	cfg *config.Config,
	engine *usecase.Engine,
	trades *usecase.TradesUseCase,
	ch *pkgch.Client,
	ticks usecase.TickSource,
	l *applogger.Logger,
) xhttp.Handler {
	opts := []api.HandlerOption{
		api.WithTrades(trades),
		api.WithControlLimit(cfg.Server.ControlRPS, cfg.Server.ControlBurst),
	}
	if ch != nil {
		opts = append(opts, api.WithHealthCheck("clickhouse", ch.Health))
	}
	if ticks != nil {
		opts = append(opts, api.WithHealthCheck("ticks", func(context.Context) error {
			if !ticks.IsConnected() {
				return fmt.Errorf("tick source disconnected")
			}
			return nil
		}))
	}
	return api.NewEngineEchoHandler(l, engine, opts...)
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, reg *prometheus.Registry, l *applogger.Logger) *xhttp.Server {
	metricsPath := cfg.Metrics.Path
	if !cfg.Metrics.Enabled {
		metricsPath = ""
	}
	return xhttp.NewServer(h,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithLogger(l),
		xhttp.WithRegistry(reg, prometheus.Gatherers{reg, prometheus.DefaultGatherer}),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	engine *usecase.Engine,
	sink *usecase.EventSink,
	ticks usecase.TickSource,
	srv *xhttp.Server,
) *server.App {
	return server.New(cfg, l, engine, sink, ticks, srv)
}
