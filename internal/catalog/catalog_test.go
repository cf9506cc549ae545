package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"roshi/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCatalog = `
instruments:
  - {name: nifty50, symbol: "^NSEI"}
  - {name: RELIANCE, symbol: RELIANCE.NS}
strategies:
  - name: intraday
    targets: [1.5, 2.5]
    stop_loss_pct: 0.7
    hold: 15min-EOD
    min_risk_reward: 2.1
rules:
  breakout_volume: 2.0
bindings:
  - {setup: BREAKOUT, strategy: INTRADAY, enabled: true}
`

func TestParse_Valid(t *testing.T) {
	cat, err := Parse([]byte(validCatalog))
	require.NoError(t, err)
	require.Len(t, cat.Instruments, 2)
	assert.Equal(t, "NIFTY50", cat.Instruments[0].Name)
	assert.Equal(t, "^NSEI", cat.Instruments[0].Symbol)
	require.Len(t, cat.Strategies, 1)
	assert.Equal(t, "INTRADAY", cat.Strategies[0].Name)
	assert.Equal(t, []float64{1.5, 2.5}, cat.Strategies[0].Targets)
	assert.Equal(t, 2.0, cat.Rules.BreakoutVolume)
	assert.Equal(t, strategy.DefaultSupportVolume, cat.Rules.SupportVolume)
	assert.NotNil(t, cat.Engine())
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty targets", `
instruments: [{name: A, symbol: A.NS}]
strategies: [{name: X, targets: [], stop_loss_pct: 1}]
`},
		{"negative target", `
instruments: [{name: A, symbol: A.NS}]
strategies: [{name: X, targets: [-1], stop_loss_pct: 1}]
`},
		{"descending targets", `
instruments: [{name: A, symbol: A.NS}]
strategies: [{name: X, targets: [2, 1], stop_loss_pct: 1}]
bindings: [{setup: BREAKOUT, strategy: X, enabled: true}]
`},
		{"unknown field", `
instruments: [{name: A, symbol: A.NS, exchange: NSE}]
strategies: [{name: X, targets: [1], stop_loss_pct: 1}]
`},
		{"no instruments", `
instruments: []
strategies: [{name: X, targets: [1], stop_loss_pct: 1}]
`},
		{"binding to unknown strategy", `
instruments: [{name: A, symbol: A.NS}]
strategies: [{name: X, targets: [1], stop_loss_pct: 1}]
bindings: [{setup: BREAKOUT, strategy: Y, enabled: true}]
`},
		{"unknown setup", `
instruments: [{name: A, symbol: A.NS}]
strategies: [{name: X, targets: [1], stop_loss_pct: 1}]
bindings: [{setup: GAP_UP, strategy: X, enabled: true}]
`},
		{"duplicate instrument", `
instruments: [{name: A, symbol: A.NS}, {name: a, symbol: A2.NS}]
strategies: [{name: X, targets: [1], stop_loss_pct: 1}]
bindings: [{setup: BREAKOUT, strategy: X, enabled: true}]
`},
		{"empty document", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	cat := Default()
	assert.NoError(t, cat.Validate())
	assert.Len(t, cat.Instruments, 16)
}

func TestShippedCatalogMatchesDefault(t *testing.T) {
	cat, err := LoadFile(filepath.Join("..", "..", "configs", "catalog.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Instruments, cat.Instruments)
	assert.Equal(t, Default().Strategies, cat.Strategies)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}
