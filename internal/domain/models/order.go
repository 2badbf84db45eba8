package models

import "time"

// Order is a sized order handed to an execution venue.
type Order struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Action      Action    `json:"action"`
	Size        float64   `json:"size"`
	EntryPrice  float64   `json:"entry_price"`
	TargetPrice float64   `json:"target_price"`
	StopPrice   float64   `json:"stop_price"`
	Confidence  float64   `json:"confidence"`
	Strategy    string    `json:"strategy"`
	CreatedAt   time.Time `json:"created_at"`
}

// TradeOutcome is what the venue reports back for an order.
type TradeOutcome struct {
	OrderID     string  `json:"order_id"`
	Filled      bool    `json:"filled"`
	RealizedPnL float64 `json:"realized_pnl"`
	FillPrice   float64 `json:"fill_price"`
	ExitPrice   float64 `json:"exit_price"`
}

// TradeRecord is a settled trade as written to the journal.
type TradeRecord struct {
	OrderID      string    `json:"order_id"`
	Symbol       string    `json:"symbol"`
	Action       Action    `json:"action"`
	Size         float64   `json:"size"`
	EntryPrice   float64   `json:"entry_price"`
	ExitPrice    float64   `json:"exit_price"`
	RealizedPnL  float64   `json:"realized_pnl"`
	Confidence   float64   `json:"confidence"`
	Strategy     string    `json:"strategy"`
	BalanceAfter float64   `json:"balance_after"`
	SettledAt    time.Time `json:"settled_at"`
}

// NewTradeRecord builds a journal row from an order and its outcome.
func NewTradeRecord(o Order, out TradeOutcome, balanceAfter float64, at time.Time) TradeRecord {
	exit := out.ExitPrice
	if exit == 0 {
		exit = out.FillPrice
	}
	return TradeRecord{
		OrderID:      o.ID,
		Symbol:       o.Symbol,
		Action:       o.Action,
		Size:         o.Size,
		EntryPrice:   o.EntryPrice,
		ExitPrice:    exit,
		RealizedPnL:  out.RealizedPnL,
		Confidence:   o.Confidence,
		Strategy:     o.Strategy,
		BalanceAfter: balanceAfter,
		SettledAt:    at,
	}
}
