package strategy

import (
	"strings"
	"time"

	"roshi/internal/analysis/levels"
	"roshi/internal/logger"
	"roshi/internal/market"
)

// Binding attaches a rule to a catalog strategy. An empty Confidence keeps
// the rule's own label.
type Binding struct {
	Setup      Setup      `json:"setup" yaml:"setup"`
	Strategy   string     `json:"strategy" yaml:"strategy"`
	Confidence Confidence `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Enabled    bool       `json:"enabled" yaml:"enabled"`
}

func DefaultBindings() []Binding {
	return []Binding{
		{Setup: SetupBreakout, Strategy: "INTRADAY", Enabled: true},
		{Setup: SetupSupportReversal, Strategy: "SWING", Enabled: true},
		{Setup: SetupMomentum, Strategy: "SCALPING", Enabled: true},
	}
}

var builtinRules = map[Setup]Rule{
	SetupBreakout:        Breakout,
	SetupSupportReversal: SupportReversal,
	SetupMomentum:        Momentum,
}

// Engine runs every enabled rule against one instrument's levels. All rules
// are evaluated; several may fire in the same pass.
type Engine struct {
	params   RuleParams
	defs     map[string]Definition
	bindings []Binding
	nowFn    func() time.Time
}

func NewEngine(defs []Definition, params RuleParams, bindings []Binding) *Engine {
	byName := make(map[string]Definition, len(defs))
	for _, d := range defs {
		byName[strings.ToUpper(strings.TrimSpace(d.Name))] = d
	}
	return &Engine{
		params:   params.WithDefaults(),
		defs:     byName,
		bindings: append([]Binding(nil), bindings...),
		nowFn:    time.Now,
	}
}

// Definition looks up a catalog strategy by name.
func (e *Engine) Definition(name string) (Definition, bool) {
	d, ok := e.defs[strings.ToUpper(strings.TrimSpace(name))]
	return d, ok
}

func (e *Engine) Evaluate(inst market.Instrument, lv levels.Levels) []Signal {
	var out []Signal
	for _, b := range e.bindings {
		if !b.Enabled {
			continue
		}
		rule, ok := builtinRules[b.Setup]
		if !ok {
			logger.Debugf("strategy: unknown setup %s, skip", b.Setup)
			continue
		}
		def, ok := e.Definition(b.Strategy)
		if !ok {
			logger.Debugf("strategy: setup %s bound to missing strategy %s, skip", b.Setup, b.Strategy)
			continue
		}
		sig, fired := rule(lv, e.params, def)
		if !fired {
			continue
		}
		sig.Instrument = inst
		sig.Strategy = def.Name
		sig.Hold = def.Hold
		sig.MinRiskReward = def.MinRiskReward
		sig.CreatedAt = e.nowFn().UTC()
		if b.Confidence != "" {
			sig.Confidence = b.Confidence
		}
		out = append(out, sig)
	}
	return out
}
