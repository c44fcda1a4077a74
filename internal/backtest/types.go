package backtest

// Rule selects how a setup is labeled success or failure.
type Rule string

const (
	// RuleATR enters at the last close with an ATR-derived stop and a
	// target a fixed multiple of the risk above entry.
	RuleATR Rule = "atr"
	// RuleForwardReturn labels success when the forward window's best
	// close gained at least TargetGain over entry.
	RuleForwardReturn Rule = "forward_return"
)

// Config holds backtest simulator settings.
type Config struct {
	Rule            Rule
	EntryThreshold  float64 // minimum confidence score to take a setup
	HorizonDays     int     // forward bars inspected after entry
	TargetGain      float64 // forward-return rule threshold
	ATRStopMultiple float64 // stop distance in ATRs
	TargetMultiple  float64 // target distance in multiples of risk
	LookbackDays    int     // calendar days of history to request
	Workers         int

	// MarketFilter excludes entries while market breadth is below
	// MarketGate; SectorFilter excludes sector underperformers.
	MarketFilter bool
	SectorFilter bool
	MarketGate   float64
}

// DefaultConfig returns the canonical ATR-rule setup.
func DefaultConfig() Config {
	return Config{
		Rule:            RuleATR,
		EntryThreshold:  50,
		HorizonDays:     10,
		TargetGain:      0.10,
		ATRStopMultiple: 1.5,
		TargetMultiple:  3.0,
		LookbackDays:    365,
		Workers:         8,
		MarketGate:      60,
	}
}

// Summary aggregates one backtest run.
type Summary struct {
	SuccessRate float64  `json:"success_rate"` // percent over evaluated setups
	Evaluated   int      `json:"evaluated"`
	Records     []Record `json:"records"`
}

// Record labels one historical setup.
type Record struct {
	Symbol         string  `json:"symbol"`
	VCPScore       float64 `json:"vcp_score"`
	EntryPrice     float64 `json:"entry_price"`
	StopLoss       float64 `json:"stop_loss"`
	TargetPrice    float64 `json:"target_price"`
	MaxFuturePrice float64 `json:"max_future_price"`
	Success        bool    `json:"success"`
}
