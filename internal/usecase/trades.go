package usecase

import (
	"context"
	"fmt"
	"time"

	"ConsensusBot/internal/domain/models"
	domrepo "ConsensusBot/internal/domain/repository"
)

// TradesUseCase reads settled trades back from the journal.
type TradesUseCase struct {
	journal domrepo.TradeJournal
}

func NewTradesUseCase(journal domrepo.TradeJournal) *TradesUseCase {
	return &TradesUseCase{journal: journal}
}

type GetTradesParams struct {
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}

type GetTradesResult struct {
	Symbol string               `json:"symbol"`
	From   time.Time            `json:"from"`
	To     time.Time            `json:"to"`
	Count  int                  `json:"count"`
	Trades []models.TradeRecord `json:"trades"`
}

// Enabled reports whether a journal is configured.
func (uc *TradesUseCase) Enabled() bool { return uc != nil && uc.journal != nil }

func (uc *TradesUseCase) GetTrades(ctx context.Context, p GetTradesParams) (*GetTradesResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 100
	}
	if p.Limit > 5000 {
		p.Limit = 5000
	}

	trades, err := uc.journal.Query(ctx, p.Symbol, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("get trades: %w", err)
	}
	return &GetTradesResult{
		Symbol: p.Symbol,
		From:   p.From,
		To:     p.To,
		Count:  len(trades),
		Trades: trades,
	}, nil
}
