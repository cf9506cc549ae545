// Package risk prices a candidate signal (risk, reward, net profit after
// costs, sizing band) and decides whether it clears the quality gate.
package risk

import (
	"fmt"
	"math"

	"roshi/internal/strategy"

	"github.com/shopspring/decimal"
)

type Position string

const (
	PositionAggressive   Position = "AGGRESSIVE"
	PositionModerate     Position = "MODERATE"
	PositionConservative Position = "CONSERVATIVE"
)

const (
	DefaultTransactionCost    = 40.0
	DefaultMinRiskReward      = 1.8
	DefaultMinNetProfit       = 50.0
	DefaultAggressiveBelowPct = 1.0
	DefaultModerateBelowPct   = 2.0
	DefaultQuantity           = 1.0
)

type Config struct {
	TransactionCost float64
	MinRiskReward   float64
	MinNetProfit    float64
	// EnforceStrategyRR raises the gate to the strategy's own minimum
	// when that is stricter.
	EnforceStrategyRR  bool
	AggressiveBelowPct float64
	ModerateBelowPct   float64
	Quantity           float64
}

func DefaultConfig() Config {
	return Config{
		TransactionCost:    DefaultTransactionCost,
		MinRiskReward:      DefaultMinRiskReward,
		MinNetProfit:       DefaultMinNetProfit,
		AggressiveBelowPct: DefaultAggressiveBelowPct,
		ModerateBelowPct:   DefaultModerateBelowPct,
		Quantity:           DefaultQuantity,
	}
}

type TargetMetrics struct {
	Price float64 `json:"price"`
	Gross float64 `json:"gross"`
	Net   float64 `json:"net"`
}

type Metrics struct {
	RiskReward   float64         `json:"risk_reward"`
	Risk         float64         `json:"risk"`
	RiskPct      float64         `json:"risk_pct"`
	Targets      []TargetMetrics `json:"targets"`
	Position     Position        `json:"position"`
	PositionNote string          `json:"position_note"`
	TotalRisk    float64         `json:"total_risk"`
}

// FirstNet is the net profit at the nearest target.
func (m Metrics) FirstNet() float64 {
	if len(m.Targets) == 0 {
		return 0
	}
	return m.Targets[0].Net
}

type Verdict struct {
	Pass   bool   `json:"pass"`
	Reason string `json:"reason"`
}

type Evaluator struct {
	cfg Config
}

func NewEvaluator(cfg Config) *Evaluator {
	if cfg.Quantity <= 0 {
		cfg.Quantity = DefaultQuantity
	}
	if cfg.AggressiveBelowPct <= 0 {
		cfg.AggressiveBelowPct = DefaultAggressiveBelowPct
	}
	if cfg.ModerateBelowPct <= 0 {
		cfg.ModerateBelowPct = DefaultModerateBelowPct
	}
	return &Evaluator{cfg: cfg}
}

func (e *Evaluator) Config() Config { return e.cfg }

// Evaluate never fails: a non-positive risk yields a zero ratio and a zero
// entry yields a zero risk percentage.
func (e *Evaluator) Evaluate(sig strategy.Signal) Metrics {
	entry := decFromFloat(sig.Entry)
	stop := decFromFloat(sig.StopLoss)
	qty := decFromFloat(e.cfg.Quantity)
	cost := decFromFloat(e.cfg.TransactionCost)

	risk := entry.Sub(stop)
	if sig.Action == strategy.ActionSell {
		risk = stop.Sub(entry)
	}

	out := Metrics{
		Risk:    decToFloat(risk.Round(4)),
		Targets: make([]TargetMetrics, 0, len(sig.Targets)),
	}
	for _, t := range sig.Targets {
		target := decFromFloat(t)
		reward := target.Sub(entry)
		if sig.Action == strategy.ActionSell {
			reward = entry.Sub(target)
		}
		gross := reward.Mul(qty)
		out.Targets = append(out.Targets, TargetMetrics{
			Price: t,
			Gross: decToFloat(gross.Round(4)),
			Net:   decToFloat(gross.Sub(cost).Round(4)),
		})
	}
	if risk.IsPositive() && len(sig.Targets) > 0 {
		first := decFromFloat(sig.Targets[0]).Sub(entry)
		if sig.Action == strategy.ActionSell {
			first = entry.Sub(decFromFloat(sig.Targets[0]))
		}
		out.RiskReward = decToFloat(first.Div(risk).Round(2))
	}
	if entry.IsPositive() {
		out.RiskPct = decToFloat(risk.Div(entry).Mul(decimal.NewFromInt(100)).Round(4))
	}
	out.TotalRisk = decToFloat(risk.Mul(qty).Round(2))
	out.Position = e.band(out.RiskPct)
	out.PositionNote = fmt.Sprintf("Risk: %.1f%% capital", out.RiskPct)
	return out
}

func (e *Evaluator) band(riskPct float64) Position {
	switch {
	case riskPct < e.cfg.AggressiveBelowPct:
		return PositionAggressive
	case riskPct < e.cfg.ModerateBelowPct:
		return PositionModerate
	default:
		return PositionConservative
	}
}

// Gate is the only check between a fired rule and a notification.
func (e *Evaluator) Gate(sig strategy.Signal, m Metrics) Verdict {
	minRR := e.cfg.MinRiskReward
	if e.cfg.EnforceStrategyRR && sig.MinRiskReward > minRR {
		minRR = sig.MinRiskReward
	}
	if len(m.Targets) == 0 {
		return Verdict{Reason: "no targets"}
	}
	if m.RiskReward < minRR {
		return Verdict{Reason: fmt.Sprintf("risk-reward %.2f < %.2f", m.RiskReward, minRR)}
	}
	if net := m.FirstNet(); net < e.cfg.MinNetProfit {
		return Verdict{Reason: fmt.Sprintf("net profit %.2f < %.2f", net, e.cfg.MinNetProfit)}
	}
	return Verdict{Pass: true, Reason: fmt.Sprintf("risk-reward %.2f, net %.2f", m.RiskReward, m.FirstNet())}
}

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

func decToFloat(val decimal.Decimal) float64 {
	f, _ := val.Float64()
	return f
}
