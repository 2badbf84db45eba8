package models

// Requests for engine HTTP endpoints. Defined in domain for consistency and reuse.

type RecentSignalsRequest struct {
	Count int `query:"count" json:"count" default:"10" validate:"gte=1,lte=100"`
}

type TradesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=5000"`
}

// EngineStatus is the control-plane view of an engine.
type EngineStatus struct {
	State     string       `json:"state"`
	LastHalt  *HaltEvent   `json:"last_halt,omitempty"`
	Account   AccountState `json:"account"`
	Symbols   []string     `json:"symbols"`
	LastCycle string       `json:"last_cycle,omitempty"`
}
