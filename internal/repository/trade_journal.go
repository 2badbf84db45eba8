package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ConsensusBot/internal/domain/models"
	domrepo "ConsensusBot/internal/domain/repository"
	pkgch "ConsensusBot/pkg/clickhouse"
)

// CHTradeJournal persists settled trades in ClickHouse.
type CHTradeJournal struct {
	db       *sql.DB
	database string
	table    string
}

var _ domrepo.TradeJournal = (*CHTradeJournal)(nil)

// NewCHTradeJournal creates a journal writing to <database>.trades.
func NewCHTradeJournal(db *sql.DB, database string) *CHTradeJournal {
	if database == "" {
		database = "consensusbot"
	}
	return &CHTradeJournal{db: db, database: database, table: database + ".trades"}
}

func (j *CHTradeJournal) Init(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, pkgch.TradesDDL(j.database)); err != nil {
		return fmt.Errorf("init trades table: %w", err)
	}
	return nil
}

func (j *CHTradeJournal) Record(ctx context.Context, t models.TradeRecord) error {
	if t.OrderID == "" || t.Symbol == "" {
		return fmt.Errorf("record trade: missing order id or symbol")
	}
	q := fmt.Sprintf(`INSERT INTO %s (settled_at, order_id, symbol, action, size, entry_price, exit_price, realized_pnl, confidence, strategy, balance_after) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, j.table)
	_, err := j.db.ExecContext(ctx, q,
		t.SettledAt.UTC(),
		t.OrderID,
		t.Symbol,
		string(t.Action),
		t.Size,
		t.EntryPrice,
		t.ExitPrice,
		t.RealizedPnL,
		t.Confidence,
		t.Strategy,
		t.BalanceAfter,
	)
	if err != nil {
		return fmt.Errorf("record trade %s: %w", t.OrderID, err)
	}
	return nil
}

// Query returns trades for symbol settled within [from, to], newest first.
func (j *CHTradeJournal) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.TradeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf(`SELECT settled_at, order_id, symbol, action, size, entry_price, exit_price, realized_pnl, confidence, strategy, balance_after FROM %s WHERE symbol = ? AND settled_at >= ? AND settled_at <= ? ORDER BY settled_at DESC LIMIT ?`, j.table)
	rows, err := j.db.QueryContext(ctx, q, symbol, from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []models.TradeRecord
	for rows.Next() {
		var (
			t      models.TradeRecord
			action string
		)
		if err := rows.Scan(&t.SettledAt, &t.OrderID, &t.Symbol, &action, &t.Size, &t.EntryPrice,
			&t.ExitPrice, &t.RealizedPnL, &t.Confidence, &t.Strategy, &t.BalanceAfter); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Action = models.Action(action)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *CHTradeJournal) Health(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Close is a no-op; the pool is owned by pkg/clickhouse.
func (j *CHTradeJournal) Close() error { return nil }
