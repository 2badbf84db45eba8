package models

// EngineState is the governance state of an engine.
type EngineState int32

const (
	StateStopped EngineState = iota
	StateRunning
	StateHaltedForDailyGoal
	StateHaltedForTradeLimit
)

func (s EngineState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateHaltedForDailyGoal:
		return "halted_daily_goal"
	case StateHaltedForTradeLimit:
		return "halted_trade_limit"
	default:
		return "unknown"
	}
}

// Halted reports whether s is one of the governance halt states.
func (s EngineState) Halted() bool {
	return s == StateHaltedForDailyGoal || s == StateHaltedForTradeLimit
}

// AccountState is owned by the governor and written only while settling a trade.
type AccountState struct {
	Balance         float64 `json:"balance"`
	StartingBalance float64 `json:"starting_balance"`
	TotalProfit     float64 `json:"total_profit"`
	TodayProfit     float64 `json:"today_profit"`
	TodayTrades     int     `json:"today_trades"`
	Day             string  `json:"day"`
}
