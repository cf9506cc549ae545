package strategy

import (
	"fmt"
	"math"
	"strings"
	"time"

	"roshi/internal/market"
)

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Setup names the rule that produced a signal.
type Setup string

const (
	SetupBreakout        Setup = "BREAKOUT"
	SetupSupportReversal Setup = "SUPPORT_REVERSAL"
	SetupMomentum        Setup = "MOMENTUM"
)

// Definition is one catalog strategy. Targets are percentages from entry in
// realization order; a simple strategy carries exactly one.
type Definition struct {
	Name          string    `json:"name" yaml:"name"`
	Targets       []float64 `json:"targets" yaml:"targets"`
	StopLossPct   float64   `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	Hold          string    `json:"hold" yaml:"hold"`
	MinRiskReward float64   `json:"min_risk_reward" yaml:"min_risk_reward"`
}

func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("strategy name is required")
	}
	if len(d.Targets) == 0 {
		return fmt.Errorf("strategy %s: at least one target is required", d.Name)
	}
	prev := 0.0
	for i, t := range d.Targets {
		if math.IsNaN(t) || t <= 0 {
			return fmt.Errorf("strategy %s: targets[%d]=%v must be > 0", d.Name, i, t)
		}
		if t <= prev {
			return fmt.Errorf("strategy %s: targets must be strictly ascending", d.Name)
		}
		prev = t
	}
	if math.IsNaN(d.StopLossPct) || d.StopLossPct <= 0 || d.StopLossPct >= 100 {
		return fmt.Errorf("strategy %s: stop_loss_pct=%v must be in (0,100)", d.Name, d.StopLossPct)
	}
	if d.MinRiskReward < 0 {
		return fmt.Errorf("strategy %s: min_risk_reward must be >= 0", d.Name)
	}
	return nil
}

// DefaultDefinitions is the built-in strategy catalog.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Name: "SCALPING", Targets: []float64{0.8}, StopLossPct: 0.4, Hold: "5-15min", MinRiskReward: 2.0},
		{Name: "INTRADAY", Targets: []float64{1.5}, StopLossPct: 0.7, Hold: "15min-EOD", MinRiskReward: 2.1},
		{Name: "SWING", Targets: []float64{3.5}, StopLossPct: 1.7, Hold: "1-3 days", MinRiskReward: 2.0},
		{Name: "FUTURES", Targets: []float64{2.8}, StopLossPct: 1.3, Hold: "Intraday", MinRiskReward: 2.1},
	}
}

// Signal is a candidate trade produced by one rule for one instrument.
// Targets are absolute prices in realization order.
type Signal struct {
	Instrument    market.Instrument `json:"instrument"`
	Strategy      string            `json:"strategy"`
	Action        Action            `json:"action"`
	Setup         Setup             `json:"setup"`
	Entry         float64           `json:"entry"`
	Targets       []float64         `json:"targets"`
	StopLoss      float64           `json:"stop_loss"`
	Confidence    Confidence        `json:"confidence"`
	Reason        string            `json:"reason"`
	Hold          string            `json:"hold,omitempty"`
	MinRiskReward float64           `json:"min_risk_reward,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// FirstTarget returns the nearest target, or 0 when none is set.
func (s Signal) FirstTarget() float64 {
	if len(s.Targets) == 0 {
		return 0
	}
	return s.Targets[0]
}
