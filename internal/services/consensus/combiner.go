package consensus

import (
	"ConsensusBot/internal/domain/models"
)

// partition accumulates weighted sums for one action.
type partition struct {
	conf, profit, risk, weight float64
	latest                     models.Signal
	count                      int
}

func (p *partition) add(s models.Signal, w float64) {
	p.conf += s.Confidence * w
	p.profit += s.ExpectedProfitPct * w
	p.risk += s.RiskLevel * w
	p.weight += w
	if p.count == 0 || s.Timestamp.After(p.latest.Timestamp) {
		p.latest = s
	}
	p.count++
}

func (p *partition) avg(v float64) float64 {
	if p.weight <= 0 {
		return 0
	}
	return v / p.weight
}

// Combine merges candidates by confidence-weighted voting per action.
// Each action is averaged over its own candidates only; the winner must beat the
// other action and the execution threshold strictly. Weights are looked up by
// strategy name; unknown strategies carry no weight.
func Combine(candidates []models.Signal, weights map[string]float64) *models.Signal {
	var buy, sell partition
	for _, c := range candidates {
		w := weights[c.Strategy]
		if w <= 0 {
			continue
		}
		switch c.Action {
		case models.Buy:
			buy.add(c, w)
		case models.Sell:
			sell.add(c, w)
		}
	}

	buyConf, sellConf := buy.avg(buy.conf), sell.avg(sell.conf)
	var win *partition
	action := models.Buy
	switch {
	case buyConf > sellConf && buyConf > models.ExecutionThreshold:
		win = &buy
	case sellConf > buyConf && sellConf > models.ExecutionThreshold:
		win, action = &sell, models.Sell
	default:
		return nil
	}

	return &models.Signal{
		Symbol:            win.latest.Symbol,
		Action:            action,
		Confidence:        win.avg(win.conf),
		ExpectedProfitPct: win.avg(win.profit),
		RiskLevel:         win.avg(win.risk),
		Strategy:          models.ConsensusStrategy,
		Timestamp:         win.latest.Timestamp,
	}
}
