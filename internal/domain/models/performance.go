package models

import "time"

// PerformanceSnapshot is recomputed from the full trade list after every settlement.
type PerformanceSnapshot struct {
	TotalTrades           int       `json:"total_trades"`
	WinningTrades         int       `json:"winning_trades"`
	LosingTrades          int       `json:"losing_trades"`
	WinRate               float64   `json:"win_rate"`
	TotalProfit           float64   `json:"total_profit"`
	TodayProfit           float64   `json:"today_profit"`
	AverageProfitPerTrade float64   `json:"average_profit_per_trade"`
	MaxDrawdown           float64   `json:"max_drawdown"`
	SharpeRatio           float64   `json:"sharpe_ratio"`
	ProfitFactor          float64   `json:"profit_factor"`
	CurrentStreak         int       `json:"current_streak"`
	LongestWinStreak      int       `json:"longest_win_streak"`
	TradesRemaining       int       `json:"trades_remaining"`
	Balance               float64   `json:"balance"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// StrategySummary is the public view of a descriptor in detailed stats.
type StrategySummary struct {
	Name    string  `json:"name"`
	Weight  float64 `json:"weight"`
	Enabled bool    `json:"enabled"`
}

// DetailedStats aggregates performance with account and configuration context.
type DetailedStats struct {
	Performance      PerformanceSnapshot `json:"performance"`
	Balance          float64             `json:"balance"`
	ROI              float64             `json:"roi"`
	DailyAverage     float64             `json:"daily_average"`
	State            string              `json:"state"`
	Strategies       []StrategySummary   `json:"strategies"`
	MarketConditions []MarketCondition   `json:"market_conditions"`
}
