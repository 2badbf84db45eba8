package models

import "time"

// EventKind classifies engine notifications.
type EventKind string

const (
	EventSnapshot EventKind = "snapshot"
	EventHalt     EventKind = "halt"
	EventError    EventKind = "error"
	EventTrade    EventKind = "trade"
)

// HaltEvent reports a governance halt; it is a normal terminal transition, not an error.
type HaltEvent struct {
	State       EngineState `json:"-"`
	Reason      string      `json:"reason"`
	TodayProfit float64     `json:"today_profit"`
	TodayTrades int         `json:"today_trades"`
}

// EngineEvent is delivered to event subscribers in registration order.
type EngineEvent struct {
	Kind      EventKind            `json:"kind"`
	Symbol    string               `json:"symbol,omitempty"`
	Snapshot  *PerformanceSnapshot `json:"snapshot,omitempty"`
	Halt      *HaltEvent           `json:"halt,omitempty"`
	Trade     *TradeRecord         `json:"trade,omitempty"`
	Err       error                `json:"-"`
	Message   string               `json:"message,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}
