package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ConsensusBot/internal/domain/models"
	domrepo "ConsensusBot/internal/domain/repository"
	"ConsensusBot/internal/services/features"
	applogger "ConsensusBot/pkg/logger"
)

// CHCandleStore reads OHLCV bars from ClickHouse. It doubles as a polling
// QuoteFeed: the sample is the close of the latest bar at the feed timeframe (1m by default).
type CHCandleStore struct {
	db       *sql.DB
	database string
	feedTF   domrepo.Timeframe
	l        *applogger.Logger
}

var (
	_ domrepo.CandleStore = (*CHCandleStore)(nil)
	_ domrepo.QuoteFeed   = (*CHCandleStore)(nil)
)

func NewCHCandleStore(db *sql.DB, database string) *CHCandleStore {
	if database == "" {
		database = "consensusbot"
	}
	return &CHCandleStore{db: db, database: database, feedTF: domrepo.TF1m, l: applogger.NewNop()}
}

// SetFeedTimeframe selects the bars served through Sample and History.
// Unknown values fall back to the default timeframe.
func (s *CHCandleStore) SetFeedTimeframe(raw string) {
	s.feedTF = domrepo.ParseTimeframe(raw)
}

// SetLogger injects a structured logger.
func (s *CHCandleStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

func (s *CHCandleStore) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	table, err := s.tableForTF(tf)
	if err != nil {
		return nil, err
	}
	from, to = features.AlignFromTo(from, to, tf)
	q := fmt.Sprintf(`
        SELECT bucket, symbol, open, high, low, close, vol
        FROM %s
        WHERE symbol = ? AND bucket >= ? AND bucket <= ?
        ORDER BY bucket ASC
    `, table)
	return s.query(ctx, "get_candles", table, q, symbol, from, to)
}

func (s *CHCandleStore) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	if n <= 0 {
		return nil, nil
	}
	table, err := s.tableForTF(tf)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
        SELECT bucket, symbol, open, high, low, close, vol
        FROM %s
        WHERE symbol = ?
        ORDER BY bucket DESC
        LIMIT ?
    `, table)
	out, err := s.query(ctx, "latest_candles", table, q, symbol, n)
	if err != nil {
		return nil, err
	}
	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Sample returns the latest 1m bar as a quote.
func (s *CHCandleStore) Sample(ctx context.Context, symbol string) (models.Sample, error) {
	bars, err := s.GetLatestNCandles(ctx, symbol, 1, s.feedTF)
	if err != nil {
		return models.Sample{}, err
	}
	if len(bars) == 0 {
		return models.Sample{}, fmt.Errorf("no candles for %s: %w", symbol, models.ErrInsufficientData)
	}
	b := bars[0]
	return models.Sample{Symbol: symbol, Price: b.Close, Volume: b.Volume, Timestamp: b.Bucket}, nil
}

// History returns the n most recent bars at the feed timeframe, oldest first.
func (s *CHCandleStore) History(ctx context.Context, symbol string, n int) ([]models.Candle, error) {
	return s.GetLatestNCandles(ctx, symbol, n, s.feedTF)
}

func (s *CHCandleStore) query(ctx context.Context, op, table, q string, args ...any) ([]models.Candle, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse "+op+" query error",
			applogger.String("table", table),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 256)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Bucket, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			s.l.Error("clickhouse "+op+" scan error",
				applogger.String("table", table),
				applogger.Error(err),
			)
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse "+op+" ok",
		applogger.String("table", table),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHCandleStore) tableForTF(tf domrepo.Timeframe) (string, error) {
	switch tf {
	case domrepo.TF1s:
		return s.database + ".candles_1s", nil
	case domrepo.TF1m, domrepo.TF5m:
		// 5m folds onto the 1m table
		return s.database + ".candles_1m", nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
}
