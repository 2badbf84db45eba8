package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const replayYAML = `
environment: test
feed:
  type: replay
  replay_csv: testdata/prices.csv
engine:
  symbols: [aapl]
  params:
    daily_profit_goal: 250
    max_daily_trades: 5
`

func env(vals map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vals[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Server.Port)
	assert.True(t, c.Server.CORS)
	assert.Equal(t, 3*time.Second, c.Engine.ScanInterval)
	assert.Equal(t, time.Second, c.Engine.SymbolDelay)
	assert.Equal(t, 10000.0, c.Engine.StartingBalance)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, c.Engine.Symbols)
	assert.Equal(t, "paper", c.Venue.Type)
	assert.Equal(t, 15*time.Minute, c.Venue.Paper.MaxHold)
	assert.Equal(t, -1, c.Kafka.RequiredAcks)
	assert.False(t, c.Kafka.Enabled)
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(replayYAML))
	require.NoError(t, err)
	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, "replay", c.Feed.Type)
	assert.Equal(t, []string{"aapl"}, c.Engine.Symbols)
	assert.Equal(t, time.Minute, c.Feed.BarWidth, "untouched fields keep defaults")

	ec := c.EngineConfig()
	assert.Equal(t, 250.0, ec.DailyProfitGoal)
	assert.Equal(t, 5, ec.MaxDailyTrades)
	assert.Equal(t, 2.5, ec.ProfitPerTradePct)
	assert.Len(t, ec.Strategies, 5)
}

func TestValidateRules(t *testing.T) {
	cases := map[string]string{
		"live feed needs api key":  "feed: {type: live}",
		"replay needs csv":         "feed: {type: replay}",
		"unknown venue":            "feed: {type: replay, replay_csv: x.csv}\nvenue: {type: dark}",
		"rest venue needs url":     "feed: {type: replay, replay_csv: x.csv}\nvenue: {type: rest}",
		"clickhouse feed disabled": "feed: {type: clickhouse}",
		"kafka without brokers":    "feed: {type: replay, replay_csv: x.csv}\nkafka: {enabled: true}",
		"bad timezone":             "feed: {type: replay, replay_csv: x.csv}\nengine: {timezone: Mars/Olympus}",
		"bad log level":            "feed: {type: replay, replay_csv: x.csv}\nlogging: {level: loud}",
		"kafka ticks need kafka":   "feed: {type: live, source: kafka}",
		"unknown tick source":      "feed: {type: live, source: carrier-pigeon}",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	c, err := Parse([]byte(replayYAML))
	require.NoError(t, err)

	err = c.applyEnv(env(map[string]string{
		"SYMBOLS":       " spy, qqq ,",
		"KAFKA_BROKERS": "k1:9092,k2:9092",
		"REDIS_ADDR":    "redis:6379",
		"LOG_LEVEL":     "DEBUG",
		"PORT":          "9090",
	}))
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Equal(t, []string{"SPY", "QQQ"}, c.Engine.Symbols)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.Equal(t, 9090, c.Server.Port)

	assert.Error(t, c.applyEnv(env(map[string]string{"PORT": "eighty"})))
	require.NoError(t, c.applyEnv(env(map[string]string{"FEED": "live"})))
	assert.Error(t, c.Validate(), "live feed without api key")
}

func TestLoadShippedConfig(t *testing.T) {
	path := filepath.Join("..", "..", "config", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("config/config.yaml not present")
	}
	t.Setenv("FINNHUB_API_KEY", "test-key")
	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "test-key", c.Finnhub.APIKey)
	assert.Equal(t, "America/New_York", c.Engine.Timezone)
}

func TestLoadWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feed:\n  type: live\n"), 0o600))
	t.Setenv("FINNHUB_API_KEY", "")

	_, err := LoadWithEnv(path)
	require.Error(t, err, "live feed without api key")

	c, err := LoadWithOverrides(path, func(c *Config) {
		c.Feed.Type = "replay"
		c.Feed.ReplayCSV = "bars.csv"
	})
	require.NoError(t, err)
	assert.Equal(t, "replay", c.Feed.Type)

	_, err = LoadWithOverrides(path, func(c *Config) { c.Feed.Type = "replay" })
	require.Error(t, err, "replay feed without a csv")
}

func TestKafkaTickSourceSkipsFinnhubKey(t *testing.T) {
	c, err := Parse([]byte("feed: {type: live, source: kafka}\nkafka: {enabled: true, brokers: [localhost:9092]}"))
	require.NoError(t, err)
	assert.Equal(t, "consensusbot.ticks", c.Kafka.TicksTopic)
	assert.Equal(t, "latest", c.Kafka.Consumer.StartOffset)
}
