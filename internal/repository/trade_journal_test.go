package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ConsensusBot/internal/domain/models"
)

func newMockDB(t *testing.T) (*CHTradeJournal, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewCHTradeJournal(db, "bot"), mock
}

func TestTradeJournal_Init(t *testing.T) {
	j, mock := newMockDB(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS bot\.trades`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, j.Init(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTradeJournal_Record(t *testing.T) {
	j, mock := newMockDB(t)
	at := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	rec := models.TradeRecord{
		OrderID: "o-1", Symbol: "BTCUSDT", Action: models.Buy, Size: 500,
		EntryPrice: 100, ExitPrice: 101, RealizedPnL: 5, Confidence: 0.91,
		Strategy: models.ConsensusStrategy, BalanceAfter: 10005, SettledAt: at,
	}
	mock.ExpectExec(`INSERT INTO bot\.trades`).
		WithArgs(at, "o-1", "BTCUSDT", "buy", 500.0, 100.0, 101.0, 5.0, 0.91, models.ConsensusStrategy, 10005.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, j.Record(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTradeJournal_RecordErrors(t *testing.T) {
	j, mock := newMockDB(t)

	assert.Error(t, j.Record(context.Background(), models.TradeRecord{Symbol: "X"}))

	boom := errors.New("boom")
	mock.ExpectExec(`INSERT INTO bot\.trades`).WillReturnError(boom)
	err := j.Record(context.Background(), models.TradeRecord{OrderID: "o-2", Symbol: "X"})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "o-2")
}

func TestTradeJournal_Query(t *testing.T) {
	j, mock := newMockDB(t)
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(48 * time.Hour)
	t1 := from.Add(26 * time.Hour)
	t0 := from.Add(25 * time.Hour)

	cols := []string{"settled_at", "order_id", "symbol", "action", "size", "entry_price", "exit_price",
		"realized_pnl", "confidence", "strategy", "balance_after"}
	rows := sqlmock.NewRows(cols).
		AddRow(t1, "o-2", "ETHUSDT", "sell", 200.0, 50.0, 49.5, 2.0, 0.9, "Consensus", 10007.0).
		AddRow(t0, "o-1", "ETHUSDT", "buy", 200.0, 50.0, 49.0, -4.0, 0.88, "Consensus", 10005.0)
	mock.ExpectQuery(`SELECT settled_at, order_id .* FROM bot\.trades WHERE symbol = \?`).
		WithArgs("ETHUSDT", from, to, 100).
		WillReturnRows(rows)

	got, err := j.Query(context.Background(), "ETHUSDT", from, to, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "o-2", got[0].OrderID)
	assert.Equal(t, models.Sell, got[0].Action)
	assert.Equal(t, t1, got[0].SettledAt)
	assert.Equal(t, -4.0, got[1].RealizedPnL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTradeJournal_QueryError(t *testing.T) {
	j, mock := newMockDB(t)
	mock.ExpectQuery(`FROM bot\.trades`).WillReturnError(errors.New("down"))

	_, err := j.Query(context.Background(), "X", time.Now(), time.Now(), 5)
	assert.Error(t, err)
}
