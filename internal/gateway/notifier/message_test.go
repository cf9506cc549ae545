package notifier

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"roshi/internal/market"
	"roshi/internal/risk"
	"roshi/internal/strategy"

	"github.com/stretchr/testify/assert"
)

func TestAlertMessage_RenderHTML(t *testing.T) {
	ist, _ := time.LoadLocation("Asia/Kolkata")
	msg := AlertMessage{
		Signal: strategy.Signal{
			Instrument: market.Instrument{Name: "M&M", Symbol: "M&M.NS"},
			Strategy:   "INTRADAY",
			Action:     strategy.ActionBuy,
			Setup:      strategy.SetupBreakout,
			Entry:      1500,
			Targets:    []float64{1522.5, 1545},
			StopLoss:   1489.5,
			Confidence: strategy.ConfidenceHigh,
			Reason:     "Breakout ₹1499.00 | Volume 2.5x",
			Hold:       "15min-EOD",
		},
		Metrics: risk.Metrics{
			RiskReward:   2.14,
			Targets:      []risk.TargetMetrics{{Price: 1522.5, Gross: 22.5, Net: -17.5}, {Price: 1545, Gross: 45, Net: 5}},
			Position:     risk.PositionAggressive,
			PositionNote: "Risk: 0.7% capital",
		},
		Timestamp: time.Date(2026, 10, 19, 5, 2, 3, 0, time.UTC),
		Location:  ist,
	}
	out := msg.RenderHTML()

	assert.Contains(t, out, "<b>ROSHI CLOUD SIGNAL</b>")
	assert.Contains(t, out, "M&amp;M | INTRADAY | BREAKOUT | BUY")
	assert.Contains(t, out, "<b>Entry:</b> ₹1500.00")
	assert.Contains(t, out, "<b>Target 1:</b> ₹1522.50 (net ₹-17.50)")
	assert.Contains(t, out, "<b>Target 2:</b> ₹1545.00 (net ₹5.00)")
	assert.Contains(t, out, "<b>Stop Loss:</b> ₹1489.50")
	assert.Contains(t, out, "<b>Risk-Reward:</b> 1:2.14")
	assert.Contains(t, out, "AGGRESSIVE (Risk: 0.7% capital)")
	assert.Contains(t, out, "<b>Confidence:</b> HIGH")
	assert.Contains(t, out, "<b>Hold:</b> 15min-EOD")
	assert.Contains(t, out, "Strategy by Roshin")
	assert.Contains(t, out, "<b>Time:</b> 10:32:03 IST")
	assert.NotContains(t, out, "M&M |")
}

func TestAlertMessage_SingleTargetLabel(t *testing.T) {
	out := AlertMessage{Signal: strategy.Signal{Targets: []float64{101}}}.RenderHTML()
	assert.Contains(t, out, "<b>Target:</b> ₹101.00")
	assert.False(t, strings.Contains(out, "Time:"))
}

func TestStartupMessage(t *testing.T) {
	out := StartupMessage(16, 2*time.Minute, "Mon-Fri 09:15-15:30", time.Now(), nil)
	assert.Contains(t, out, "ROSHI SCANNER STARTED")
	assert.Contains(t, out, "<b>Instruments:</b> 16")
	assert.Contains(t, out, "<b>Scan interval:</b> 2m0s")
}

func TestStructuredMessage_LongContentKeepsMarkupBalanced(t *testing.T) {
	lines := make([]string, 0, 800)
	for i := 0; i < 800; i++ {
		lines = append(lines, "M&M <breakout> \"retest\"")
	}
	msg := StructuredMessage{
		Title: "ROSHI CLOUD SIGNAL",
		Sections: []MessageSection{
			{Fields: []MessageField{{Label: "Strategy", Value: strings.Repeat("&", 5000)}}},
			{Title: "Notes", Lines: lines},
		},
	}
	out := msg.RenderHTML()

	assert.LessOrEqual(t, utf8.RuneCountInString(out), MaxMessageLen)
	assert.True(t, strings.HasSuffix(out, "\n..."))
	assert.Equal(t, strings.Count(out, "<b>"), strings.Count(out, "</b>"))
	assert.Equal(t, strings.Count(out, "&"), strings.Count(out, "&amp;")+strings.Count(out, "&lt;")+strings.Count(out, "&gt;")+strings.Count(out, "&#34;"))
	assert.Contains(t, out, "<b>Strategy:</b> "+strings.Repeat("&amp;", maxFieldLen-3)+"...\n")
}
