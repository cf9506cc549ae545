package risk

import (
	"testing"

	"roshi/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_ReferenceCase(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	sig := strategy.Signal{Action: strategy.ActionBuy, Entry: 100, StopLoss: 99, Targets: []float64{103}}

	m := e.Evaluate(sig)
	require.Len(t, m.Targets, 1)
	assert.Equal(t, 3.0, m.Targets[0].Gross)
	assert.Equal(t, -37.0, m.Targets[0].Net)
	assert.Equal(t, 1.0, m.Risk)
	assert.Equal(t, 3.0, m.RiskReward)
	assert.Equal(t, 1.0, m.RiskPct)
	assert.Equal(t, PositionModerate, m.Position)
	assert.Equal(t, "Risk: 1.0% capital", m.PositionNote)
	assert.Equal(t, 1.0, m.TotalRisk)
}

func TestEvaluate_ZeroRisk(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	m := e.Evaluate(strategy.Signal{Action: strategy.ActionBuy, Entry: 100, StopLoss: 100, Targets: []float64{103}})
	assert.Equal(t, 0.0, m.RiskReward)
	assert.Equal(t, 0.0, m.Risk)

	t.Run("stop above entry on a buy", func(t *testing.T) {
		m := e.Evaluate(strategy.Signal{Action: strategy.ActionBuy, Entry: 100, StopLoss: 101, Targets: []float64{103}})
		assert.Equal(t, 0.0, m.RiskReward)
	})

	t.Run("zero entry", func(t *testing.T) {
		m := e.Evaluate(strategy.Signal{Action: strategy.ActionBuy, Entry: 0, StopLoss: 0, Targets: []float64{1}})
		assert.Equal(t, 0.0, m.RiskPct)
		assert.Equal(t, 0.0, m.RiskReward)
	})
}

func TestEvaluate_SellAndMultipleTargets(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	sig := strategy.Signal{Action: strategy.ActionSell, Entry: 1000, StopLoss: 1010, Targets: []float64{970, 950}}
	m := e.Evaluate(sig)
	require.Len(t, m.Targets, 2)
	assert.Equal(t, 10.0, m.Risk)
	assert.Equal(t, 3.0, m.RiskReward)
	assert.Equal(t, 30.0, m.Targets[0].Gross)
	assert.Equal(t, 10.0, m.Targets[1].Net)
	assert.Equal(t, PositionModerate, m.Position)
}

func TestEvaluate_Bands(t *testing.T) {
	e := NewEvaluator(DefaultConfig())
	tests := []struct {
		stop float64
		want Position
	}{
		{99.5, PositionAggressive},
		{98.5, PositionModerate},
		{98, PositionConservative},
		{95, PositionConservative},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			m := e.Evaluate(strategy.Signal{Action: strategy.ActionBuy, Entry: 100, StopLoss: tt.stop, Targets: []float64{110}})
			assert.Equal(t, tt.want, m.Position)
		})
	}
}

func TestEvaluate_Quantity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Quantity = 50
	e := NewEvaluator(cfg)
	m := e.Evaluate(strategy.Signal{Action: strategy.ActionBuy, Entry: 100, StopLoss: 99, Targets: []float64{103}})
	assert.Equal(t, 150.0, m.Targets[0].Gross)
	assert.Equal(t, 110.0, m.Targets[0].Net)
	assert.Equal(t, 50.0, m.TotalRisk)
	assert.Equal(t, 3.0, m.RiskReward)
}

func TestGate(t *testing.T) {
	e := NewEvaluator(DefaultConfig())

	t.Run("passes", func(t *testing.T) {
		sig := strategy.Signal{Action: strategy.ActionBuy, Entry: 6500, StopLoss: 6441.5, Targets: []float64{6630}}
		m := e.Evaluate(sig)
		assert.Equal(t, 90.0, m.FirstNet())
		v := e.Gate(sig, m)
		assert.True(t, v.Pass, v.Reason)
	})

	t.Run("low profit", func(t *testing.T) {
		sig := strategy.Signal{Action: strategy.ActionBuy, Entry: 100, StopLoss: 99, Targets: []float64{103}}
		v := e.Gate(sig, e.Evaluate(sig))
		assert.False(t, v.Pass)
		assert.Contains(t, v.Reason, "net profit")
	})

	t.Run("low risk reward", func(t *testing.T) {
		sig := strategy.Signal{Action: strategy.ActionBuy, Entry: 10000, StopLoss: 9900, Targets: []float64{10150}}
		v := e.Gate(sig, e.Evaluate(sig))
		assert.False(t, v.Pass)
		assert.Contains(t, v.Reason, "risk-reward 1.50")
	})

	t.Run("strategy minimum enforced", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EnforceStrategyRR = true
		strict := NewEvaluator(cfg)
		sig := strategy.Signal{Action: strategy.ActionBuy, Entry: 10000, StopLoss: 9900, Targets: []float64{10200}, MinRiskReward: 2.1}
		v := strict.Gate(sig, strict.Evaluate(sig))
		assert.False(t, v.Pass)

		v = e.Gate(sig, e.Evaluate(sig))
		assert.True(t, v.Pass)
	})

	t.Run("no targets", func(t *testing.T) {
		v := e.Gate(strategy.Signal{}, Metrics{})
		assert.False(t, v.Pass)
	})
}
