package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"ConsensusBot/internal/domain/models"
	"ConsensusBot/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		ControlRPS      float64       `yaml:"control_rps" default:"2" validate:"gte=0"`
		ControlBurst    int           `yaml:"control_burst" default:"5" validate:"gte=0"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"1s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout" validate:"required"`
		// Aggregated error logs are published to kafka.logs_topic when Kafka is enabled.
		CollectInterval  time.Duration `yaml:"collect_interval" default:"30s"`
		CollectThreshold int           `yaml:"collect_threshold" default:"100" validate:"gte=1"`
	} `yaml:"logging"`
	Engine struct {
		Symbols         []string      `yaml:"symbols" default:"[\"AAPL\",\"MSFT\",\"TSLA\"]" validate:"required,min=1,dive,required"`
		ScanInterval    time.Duration `yaml:"scan_interval" default:"3s"`
		SymbolDelay     time.Duration `yaml:"symbol_delay" default:"1s"`
		ErrorBackoff    time.Duration `yaml:"error_backoff" default:"5s"`
		StartingBalance float64       `yaml:"starting_balance" default:"10000" validate:"gt=0"`
		Timezone        string        `yaml:"timezone" default:"UTC"`
		HistoryBars     int           `yaml:"history_bars" default:"100" validate:"gte=30"`
		AutoStart       bool          `yaml:"auto_start"`
		// Params overrides the built-in engine defaults; unset fields keep them.
		Params models.ConfigPatch `yaml:"params"`
	} `yaml:"engine"`
	Feed struct {
		Type           string        `yaml:"type" default:"live" validate:"oneof=live replay clickhouse"`
		Source         string        `yaml:"source" default:"finnhub" validate:"oneof=finnhub kafka"` // tick source of the live feed
		ReplayCSV      string        `yaml:"replay_csv" validate:"required_if=Type replay"`
		BarWidth       time.Duration `yaml:"bar_width" default:"1m"`
		Timeframe      string        `yaml:"timeframe" default:"1m"`
		BackfillBars   int           `yaml:"backfill_bars" default:"200" validate:"gte=0"`
		PipelineMaxRPS float64       `yaml:"pipeline_max_rps" default:"20" validate:"gte=0"`
		PipelineBuffer int           `yaml:"pipeline_buffer" default:"1000" validate:"gte=1"`
	} `yaml:"feed"`
	Venue struct {
		Type  string `yaml:"type" default:"paper" validate:"oneof=paper rest"`
		Paper struct {
			PollInterval time.Duration `yaml:"poll_interval" default:"1s"`
			MaxHold      time.Duration `yaml:"max_hold" default:"15m"`
			MaxSteps     int           `yaml:"max_steps" default:"10000" validate:"gte=1"`
		} `yaml:"paper"`
		REST struct {
			BaseURL         string        `yaml:"base_url"`
			APIKey          string        `yaml:"api_key"`
			Timeout         time.Duration `yaml:"timeout" default:"10s"`
			RPS             float64       `yaml:"rps" default:"5"`
			Burst           int           `yaml:"burst" default:"1"`
			BreakerFailures uint32        `yaml:"breaker_failures" default:"5"`
			BreakerTimeout  time.Duration `yaml:"breaker_timeout" default:"30s"`
		} `yaml:"rest"`
	} `yaml:"venue"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		EventsTopic  string   `yaml:"events_topic" default:"consensusbot.events"`
		LogsTopic    string   `yaml:"logs_topic" default:"consensusbot.logs"`
		TicksTopic   string   `yaml:"ticks_topic" default:"consensusbot.ticks"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID     string        `yaml:"group_id" default:"consensusbot"`
			StartOffset string        `yaml:"start_offset" default:"latest" validate:"oneof=earliest latest"`
			Workers     int           `yaml:"workers" default:"1" validate:"gte=1"`
			BufferSize  int           `yaml:"buffer_size" default:"256" validate:"gte=1"`
			RetryMax    int           `yaml:"retry_max" default:"3" validate:"gte=0"`
			BackoffMin  time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax  time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic    string        `yaml:"dlq_topic"`
			MinBytes    int           `yaml:"min_bytes" default:"1"`
			MaxBytes    int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"consensusbot"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
		EnsureSchema     bool          `yaml:"ensure_schema" default:"true"`
	} `yaml:"clickhouse"`
	Finnhub struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"finnhub"`
	Redis struct {
		Enabled   bool          `yaml:"enabled"`
		Addr      string        `yaml:"addr" default:"localhost:6379"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		Prefix    string        `yaml:"prefix" default:"consensusbot"`
		TTL       time.Duration `yaml:"ttl" default:"24h"`
		MemoryTTL time.Duration `yaml:"memory_ttl" default:"5s"`
	} `yaml:"redis"`
	Analytics struct {
		Enabled          bool          `yaml:"enabled"`
		PythonServiceURL string        `yaml:"python_service_url" default:"http://localhost:8000"`
		Timeout          time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"analytics"`
}

var validate = validator.New()

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file. Defaults are applied
// first so the file only needs the values it changes.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML, overrides it with environment
// variables and validates the merged result.
func LoadWithEnv(path string) (*Config, error) {
	return LoadWithOverrides(path, nil)
}

// LoadWithOverrides is LoadWithEnv with a final caller hook applied before
// validation, used by commands whose flags replace config values.
func LoadWithOverrides(path string, override func(*Config)) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if override != nil {
		override(c)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(b)
}

func decode(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("SYMBOLS"); ok && v != "" {
		c.Engine.Symbols = util.UpperAll(util.SplitList(v))
	}
	if v, ok := lookup("VENUE"); ok && v != "" {
		c.Venue.Type = v
	}
	if v, ok := lookup("FEED"); ok && v != "" {
		c.Feed.Type = v
	}
	if v, ok := lookup("FINNHUB_API_KEY"); ok && v != "" {
		c.Finnhub.APIKey = v
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = util.SplitList(v)
		c.Kafka.Enabled = true
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks field rules and the cross-section requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return fmt.Errorf("%s: failed %q", ve[0].Namespace(), ve[0].Tag())
		}
		return err
	}
	if c.Feed.Type == "live" && c.Feed.Source == "finnhub" && c.Finnhub.APIKey == "" {
		return fmt.Errorf("finnhub.api_key is required for the live feed")
	}
	if c.Feed.Type == "live" && c.Feed.Source == "kafka" && !c.Kafka.Enabled {
		return fmt.Errorf("feed.source kafka requires kafka.enabled")
	}
	if c.Feed.Type == "clickhouse" && !c.ClickHouse.Enabled {
		return fmt.Errorf("feed.type clickhouse requires clickhouse.enabled")
	}
	if c.Venue.Type == "rest" && c.Venue.REST.BaseURL == "" {
		return fmt.Errorf("venue.rest.base_url is required for the rest venue")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if _, err := time.LoadLocation(c.Engine.Timezone); err != nil {
		return fmt.Errorf("engine.timezone: %w", err)
	}
	return nil
}

// EngineConfig returns the built-in engine defaults with engine.params applied.
// The result is not validated here; the engine rejects invalid values.
func (c *Config) EngineConfig() models.EngineConfig {
	return c.Engine.Params.Apply(models.DefaultEngineConfig())
}
