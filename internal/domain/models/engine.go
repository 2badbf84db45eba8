package models

// Default strategy names, in the order they are evaluated.
const (
	StrategyMomentum      = "Momentum Surge"
	StrategyMeanReversion = "Mean Reversion"
	StrategyBreakout      = "Breakout Scanner"
	StrategyPattern       = "AI Pattern Recognition"
	StrategyVolumeSpike   = "Volume Spike"
)

// ExecutionThreshold is the minimum consensus confidence (exclusive) for a final signal.
const ExecutionThreshold = 0.88

// Band is the range an evaluator maps its conviction into.
type Band struct {
	ConfidenceMin float64 `json:"confidence_min" yaml:"confidence_min" validate:"gte=0,lte=1"`
	ConfidenceMax float64 `json:"confidence_max" yaml:"confidence_max" validate:"gte=0,lte=1,gtefield=ConfidenceMin"`
	ProfitMin     float64 `json:"profit_min" yaml:"profit_min" validate:"gte=0"`
	ProfitMax     float64 `json:"profit_max" yaml:"profit_max" validate:"gtefield=ProfitMin"`
	Risk          float64 `json:"risk" yaml:"risk" validate:"gte=0,lte=1"`
}

// StrategyBands holds per-direction bands.
type StrategyBands struct {
	Buy  Band `json:"buy" yaml:"buy"`
	Sell Band `json:"sell" yaml:"sell"`
}

// StrategyDescriptor configures one evaluator.
type StrategyDescriptor struct {
	Name          string        `json:"name" yaml:"name" validate:"required"`
	Weight        float64       `json:"weight" yaml:"weight" validate:"gte=0,lte=1"`
	MinConfidence float64       `json:"min_confidence" yaml:"min_confidence" validate:"gte=0,lte=1"`
	Enabled       bool          `json:"enabled" yaml:"enabled"`
	Bands         StrategyBands `json:"bands" yaml:"bands"`
}

// EngineConfig is immutable for the duration of a cycle; updates replace it wholesale.
type EngineConfig struct {
	TargetWinRate          float64              `json:"target_win_rate" yaml:"target_win_rate" validate:"gt=0,lte=1"`
	MinWinRate             float64              `json:"min_win_rate" yaml:"min_win_rate" validate:"gte=0,lte=1"`
	MinWinRateSample       int                  `json:"min_win_rate_sample" yaml:"min_win_rate_sample" validate:"gte=1"`
	MaxDailyTrades         int                  `json:"max_daily_trades" yaml:"max_daily_trades" validate:"gte=1"`
	DailyProfitGoal        float64              `json:"daily_profit_goal" yaml:"daily_profit_goal" validate:"gt=0"`
	ProfitPerTradePct      float64              `json:"profit_per_trade_pct" yaml:"profit_per_trade_pct" validate:"gt=0,lt=100"`
	MaxRiskPerTradePct     float64              `json:"max_risk_per_trade_pct" yaml:"max_risk_per_trade_pct" validate:"gt=0,lt=100"`
	CompoundProfits        bool                 `json:"compound_profits" yaml:"compound_profits"`
	OptimisticWinRateFloor bool                 `json:"optimistic_win_rate_floor" yaml:"optimistic_win_rate_floor"`
	KellyMultiplier        float64              `json:"kelly_multiplier" yaml:"kelly_multiplier" validate:"gt=0,lte=1"`
	MaxPositionPct         float64              `json:"max_position_pct" yaml:"max_position_pct" validate:"gt=0,lte=20"`
	Strategies             []StrategyDescriptor `json:"strategies" yaml:"strategies" validate:"required,min=1,dive"`
	MarketConditions       []MarketCondition    `json:"market_conditions" yaml:"market_conditions" validate:"dive"`
}

// DefaultEngineConfig mirrors the defaults the bot shipped with.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TargetWinRate:          0.95,
		MinWinRate:             0.90,
		MinWinRateSample:       10,
		MaxDailyTrades:         20,
		DailyProfitGoal:        500,
		ProfitPerTradePct:      2.5,
		MaxRiskPerTradePct:     0.8,
		CompoundProfits:        true,
		OptimisticWinRateFloor: true,
		KellyMultiplier:        0.25,
		MaxPositionPct:         20,
		Strategies:             DefaultStrategies(),
		MarketConditions: []MarketCondition{
			{Type: ConditionTrending},
			{Type: ConditionRanging},
			{Type: ConditionVolatile},
			{Type: ConditionStable},
		},
	}
}

// DefaultStrategies returns the five evaluators with their default weights and bands.
func DefaultStrategies() []StrategyDescriptor {
	return []StrategyDescriptor{
		{
			Name: StrategyMomentum, Weight: 0.30, MinConfidence: 0.85, Enabled: true,
			Bands: StrategyBands{
				Buy:  Band{ConfidenceMin: 0.88, ConfidenceMax: 0.98, ProfitMin: 2.5, ProfitMax: 4.5, Risk: 0.30},
				Sell: Band{ConfidenceMin: 0.85, ConfidenceMax: 0.95, ProfitMin: 2.2, ProfitMax: 4.0, Risk: 0.35},
			},
		},
		{
			Name: StrategyMeanReversion, Weight: 0.25, MinConfidence: 0.88, Enabled: true,
			Bands: StrategyBands{
				Buy:  Band{ConfidenceMin: 0.90, ConfidenceMax: 0.98, ProfitMin: 1.8, ProfitMax: 3.3, Risk: 0.25},
				Sell: Band{ConfidenceMin: 0.89, ConfidenceMax: 0.97, ProfitMin: 1.6, ProfitMax: 3.0, Risk: 0.28},
			},
		},
		{
			Name: StrategyBreakout, Weight: 0.20, MinConfidence: 0.90, Enabled: true,
			Bands: StrategyBands{
				Buy:  Band{ConfidenceMin: 0.92, ConfidenceMax: 0.98, ProfitMin: 3.0, ProfitMax: 5.5, Risk: 0.40},
				Sell: Band{ConfidenceMin: 0.91, ConfidenceMax: 0.97, ProfitMin: 2.8, ProfitMax: 5.0, Risk: 0.42},
			},
		},
		{
			Name: StrategyPattern, Weight: 0.15, MinConfidence: 0.92, Enabled: true,
			Bands: StrategyBands{
				Buy:  Band{ConfidenceMin: 0.93, ConfidenceMax: 0.98, ProfitMin: 3.5, ProfitMax: 5.5, Risk: 0.35},
				Sell: Band{ConfidenceMin: 0.93, ConfidenceMax: 0.98, ProfitMin: 3.5, ProfitMax: 5.5, Risk: 0.35},
			},
		},
		{
			Name: StrategyVolumeSpike, Weight: 0.10, MinConfidence: 0.87, Enabled: true,
			Bands: StrategyBands{
				Buy:  Band{ConfidenceMin: 0.87, ConfidenceMax: 0.95, ProfitMin: 2.0, ProfitMax: 4.5, Risk: 0.45},
				Sell: Band{ConfidenceMin: 0.87, ConfidenceMax: 0.95, ProfitMin: 2.0, ProfitMax: 4.5, Risk: 0.45},
			},
		},
	}
}

// Clone returns a deep copy so callers can never alias the live config.
func (c EngineConfig) Clone() EngineConfig {
	out := c
	out.Strategies = append([]StrategyDescriptor(nil), c.Strategies...)
	out.MarketConditions = append([]MarketCondition(nil), c.MarketConditions...)
	return out
}

// Weights maps strategy name to weight for enabled strategies.
func (c EngineConfig) Weights() map[string]float64 {
	w := make(map[string]float64, len(c.Strategies))
	for _, s := range c.Strategies {
		if s.Enabled {
			w[s.Name] = s.Weight
		}
	}
	return w
}

// PayoffRatio is target profit over max risk per trade.
func (c EngineConfig) PayoffRatio() float64 {
	if c.MaxRiskPerTradePct <= 0 {
		return 0
	}
	return c.ProfitPerTradePct / c.MaxRiskPerTradePct
}

// ConfigPatch is a partial update; nil fields keep their current value.
type ConfigPatch struct {
	TargetWinRate          *float64             `json:"target_win_rate,omitempty" yaml:"target_win_rate,omitempty"`
	MinWinRate             *float64             `json:"min_win_rate,omitempty" yaml:"min_win_rate,omitempty"`
	MinWinRateSample       *int                 `json:"min_win_rate_sample,omitempty" yaml:"min_win_rate_sample,omitempty"`
	MaxDailyTrades         *int                 `json:"max_daily_trades,omitempty" yaml:"max_daily_trades,omitempty"`
	DailyProfitGoal        *float64             `json:"daily_profit_goal,omitempty" yaml:"daily_profit_goal,omitempty"`
	ProfitPerTradePct      *float64             `json:"profit_per_trade_pct,omitempty" yaml:"profit_per_trade_pct,omitempty"`
	MaxRiskPerTradePct     *float64             `json:"max_risk_per_trade_pct,omitempty" yaml:"max_risk_per_trade_pct,omitempty"`
	CompoundProfits        *bool                `json:"compound_profits,omitempty" yaml:"compound_profits,omitempty"`
	OptimisticWinRateFloor *bool                `json:"optimistic_win_rate_floor,omitempty" yaml:"optimistic_win_rate_floor,omitempty"`
	KellyMultiplier        *float64             `json:"kelly_multiplier,omitempty" yaml:"kelly_multiplier,omitempty"`
	MaxPositionPct         *float64             `json:"max_position_pct,omitempty" yaml:"max_position_pct,omitempty"`
	Strategies             []StrategyDescriptor `json:"strategies,omitempty" yaml:"strategies,omitempty"`
	MarketConditions       []MarketCondition    `json:"market_conditions,omitempty" yaml:"market_conditions,omitempty"`
}

// Apply merges the patch into a copy of base.
func (p ConfigPatch) Apply(base EngineConfig) EngineConfig {
	out := base.Clone()
	if p.TargetWinRate != nil {
		out.TargetWinRate = *p.TargetWinRate
	}
	if p.MinWinRate != nil {
		out.MinWinRate = *p.MinWinRate
	}
	if p.MinWinRateSample != nil {
		out.MinWinRateSample = *p.MinWinRateSample
	}
	if p.MaxDailyTrades != nil {
		out.MaxDailyTrades = *p.MaxDailyTrades
	}
	if p.DailyProfitGoal != nil {
		out.DailyProfitGoal = *p.DailyProfitGoal
	}
	if p.ProfitPerTradePct != nil {
		out.ProfitPerTradePct = *p.ProfitPerTradePct
	}
	if p.MaxRiskPerTradePct != nil {
		out.MaxRiskPerTradePct = *p.MaxRiskPerTradePct
	}
	if p.CompoundProfits != nil {
		out.CompoundProfits = *p.CompoundProfits
	}
	if p.OptimisticWinRateFloor != nil {
		out.OptimisticWinRateFloor = *p.OptimisticWinRateFloor
	}
	if p.KellyMultiplier != nil {
		out.KellyMultiplier = *p.KellyMultiplier
	}
	if p.MaxPositionPct != nil {
		out.MaxPositionPct = *p.MaxPositionPct
	}
	if p.Strategies != nil {
		out.Strategies = append([]StrategyDescriptor(nil), p.Strategies...)
	}
	if p.MarketConditions != nil {
		out.MarketConditions = append([]MarketCondition(nil), p.MarketConditions...)
	}
	return out
}
