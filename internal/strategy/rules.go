package strategy

import (
	"fmt"

	"roshi/internal/analysis/levels"
)

// Rule thresholds. Each can be overridden from the catalog.
const (
	DefaultBreakoutVolume        = 1.8
	DefaultSupportVolume         = 1.5
	DefaultSupportTolerance      = 0.01
	DefaultSupportStopBuffer     = 0.005
	DefaultMomentumVolume        = 2.5
	DefaultMomentumMinVolatility = 0.8
)

type RuleParams struct {
	BreakoutVolume        float64 `json:"breakout_volume" yaml:"breakout_volume"`
	SupportVolume         float64 `json:"support_volume" yaml:"support_volume"`
	SupportTolerance      float64 `json:"support_tolerance" yaml:"support_tolerance"`
	SupportStopBuffer     float64 `json:"support_stop_buffer" yaml:"support_stop_buffer"`
	MomentumVolume        float64 `json:"momentum_volume" yaml:"momentum_volume"`
	MomentumMinVolatility float64 `json:"momentum_min_volatility" yaml:"momentum_min_volatility"`
}

func DefaultRuleParams() RuleParams {
	return RuleParams{
		BreakoutVolume:        DefaultBreakoutVolume,
		SupportVolume:         DefaultSupportVolume,
		SupportTolerance:      DefaultSupportTolerance,
		SupportStopBuffer:     DefaultSupportStopBuffer,
		MomentumVolume:        DefaultMomentumVolume,
		MomentumMinVolatility: DefaultMomentumMinVolatility,
	}
}

// WithDefaults fills zero fields from the defaults.
func (p RuleParams) WithDefaults() RuleParams {
	d := DefaultRuleParams()
	if p.BreakoutVolume <= 0 {
		p.BreakoutVolume = d.BreakoutVolume
	}
	if p.SupportVolume <= 0 {
		p.SupportVolume = d.SupportVolume
	}
	if p.SupportTolerance <= 0 {
		p.SupportTolerance = d.SupportTolerance
	}
	if p.SupportStopBuffer <= 0 {
		p.SupportStopBuffer = d.SupportStopBuffer
	}
	if p.MomentumVolume <= 0 {
		p.MomentumVolume = d.MomentumVolume
	}
	if p.MomentumMinVolatility <= 0 {
		p.MomentumMinVolatility = d.MomentumMinVolatility
	}
	return p
}

// Rule is a pure trigger and construction step. The returned Signal carries
// prices, setup and reason; the Engine fills in instrument and strategy.
type Rule func(lv levels.Levels, p RuleParams, def Definition) (Signal, bool)

// Breakout fires when price is at or above resistance on elevated volume in
// an uptrend.
func Breakout(lv levels.Levels, p RuleParams, def Definition) (Signal, bool) {
	if lv.CurrentPrice <= 0 || len(def.Targets) == 0 {
		return Signal{}, false
	}
	if lv.CurrentPrice < lv.Resistance || lv.VolumeRatio <= p.BreakoutVolume || lv.Trend != levels.TrendBullish {
		return Signal{}, false
	}
	entry := RoundPrice(lv.CurrentPrice)
	return Signal{
		Action:     ActionBuy,
		Setup:      SetupBreakout,
		Entry:      entry,
		Targets:    targetsFrom(entry, def.Targets),
		StopLoss:   offsetPct(entry, def.StopLossPct, false),
		Confidence: ConfidenceHigh,
		Reason:     fmt.Sprintf("Breakout ₹%.2f | Volume %.1fx", lv.Resistance, lv.VolumeRatio),
	}, true
}

// SupportReversal fires when price sits within tolerance above support on
// rising volume in an uptrend. The stop hangs just below support.
func SupportReversal(lv levels.Levels, p RuleParams, def Definition) (Signal, bool) {
	if lv.CurrentPrice <= 0 || lv.Support <= 0 || len(def.Targets) == 0 {
		return Signal{}, false
	}
	if lv.CurrentPrice > lv.Support*(1+p.SupportTolerance) || lv.VolumeRatio <= p.SupportVolume || lv.Trend != levels.TrendBullish {
		return Signal{}, false
	}
	entry := RoundPrice(lv.CurrentPrice)
	return Signal{
		Action:     ActionBuy,
		Setup:      SetupSupportReversal,
		Entry:      entry,
		Targets:    targetsFrom(entry, def.Targets),
		StopLoss:   scale(lv.Support, 1-p.SupportStopBuffer),
		Confidence: ConfidenceHigh,
		Reason:     fmt.Sprintf("Support bounce ₹%.2f | Volume %.1fx", lv.Support, lv.VolumeRatio),
	}, true
}

// Momentum fires on a volume spike with enough range while price holds above
// the fast average. It ranks below the level-based setups.
func Momentum(lv levels.Levels, p RuleParams, def Definition) (Signal, bool) {
	if lv.CurrentPrice <= 0 || len(def.Targets) == 0 {
		return Signal{}, false
	}
	if lv.VolumeRatio <= p.MomentumVolume || lv.VolatilityPct <= p.MomentumMinVolatility || lv.CurrentPrice <= lv.MAFast {
		return Signal{}, false
	}
	entry := RoundPrice(lv.CurrentPrice)
	return Signal{
		Action:     ActionBuy,
		Setup:      SetupMomentum,
		Entry:      entry,
		Targets:    targetsFrom(entry, def.Targets),
		StopLoss:   offsetPct(entry, def.StopLossPct, false),
		Confidence: ConfidenceMedium,
		Reason:     fmt.Sprintf("Momentum | Volume %.1fx | Range %.2f%%", lv.VolumeRatio, lv.VolatilityPct),
	}, true
}

func targetsFrom(entry float64, pcts []float64) []float64 {
	out := make([]float64, 0, len(pcts))
	for _, pct := range pcts {
		out = append(out, offsetPct(entry, pct, true))
	}
	return out
}
