package strategy

import (
	"testing"

	"roshi/internal/analysis/levels"
	"roshi/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nifty = market.Instrument{Name: "NIFTY50", Symbol: "^NSEI"}

func TestEngine_EvaluateRunsAllRules(t *testing.T) {
	e := NewEngine(DefaultDefinitions(), DefaultRuleParams(), DefaultBindings())
	// breakout, support and momentum all hold at once
	lv := levels.Levels{
		CurrentPrice:  100,
		Resistance:    100,
		Support:       99.5,
		VolumeRatio:   3,
		VolatilityPct: 1.5,
		MAFast:        98,
		Trend:         levels.TrendBullish,
	}
	sigs := e.Evaluate(nifty, lv)
	require.Len(t, sigs, 3)

	got := map[Setup]Signal{}
	for _, s := range sigs {
		got[s.Setup] = s
		assert.Equal(t, nifty, s.Instrument)
		assert.False(t, s.CreatedAt.IsZero())
	}
	assert.Equal(t, "INTRADAY", got[SetupBreakout].Strategy)
	assert.Equal(t, "15min-EOD", got[SetupBreakout].Hold)
	assert.Equal(t, 2.1, got[SetupBreakout].MinRiskReward)
	assert.Equal(t, "SWING", got[SetupSupportReversal].Strategy)
	assert.Equal(t, "SCALPING", got[SetupMomentum].Strategy)
}

func TestEngine_NoSignal(t *testing.T) {
	e := NewEngine(DefaultDefinitions(), DefaultRuleParams(), DefaultBindings())
	lv := levels.Levels{CurrentPrice: 100, Resistance: 110, Support: 90, VolumeRatio: 1, Trend: levels.TrendBearish}
	assert.Empty(t, e.Evaluate(nifty, lv))
}

func TestEngine_DisabledAndMissingStrategies(t *testing.T) {
	bindings := []Binding{
		{Setup: SetupBreakout, Strategy: "INTRADAY", Enabled: false},
		{Setup: SetupSupportReversal, Strategy: "NOPE", Enabled: true},
		{Setup: SetupMomentum, Strategy: "scalping", Confidence: ConfidenceLow, Enabled: true},
	}
	e := NewEngine(DefaultDefinitions(), RuleParams{}, bindings)
	lv := levels.Levels{
		CurrentPrice:  100,
		Resistance:    100,
		Support:       99.5,
		VolumeRatio:   3,
		VolatilityPct: 1.5,
		MAFast:        98,
		Trend:         levels.TrendBullish,
	}
	sigs := e.Evaluate(nifty, lv)
	require.Len(t, sigs, 1)
	assert.Equal(t, SetupMomentum, sigs[0].Setup)
	assert.Equal(t, ConfidenceLow, sigs[0].Confidence)
}
