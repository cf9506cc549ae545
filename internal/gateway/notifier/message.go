package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"roshi/internal/pkg/text"
	"roshi/internal/risk"
	"roshi/internal/strategy"
)

// maxFieldLen bounds each dynamic value before escaping, so no single line
// outgrows MaxMessageLen.
const maxFieldLen = 600

// MessageField renders as "<b>Label:</b> value".
type MessageField struct {
	Label string
	Value string
}

type MessageSection struct {
	Title  string
	Fields []MessageField
	Lines  []string
}

// StructuredMessage is the common layout for everything sent to Telegram.
// All dynamic text is HTML-escaped on render.
type StructuredMessage struct {
	Icon      string
	Title     string
	Subtitle  string
	Sections  []MessageSection
	Footer    []string
	Timestamp time.Time
	Location  *time.Location
}

// RenderHTML produces Telegram HTML. Values are cut before escaping and an
// over-long message loses whole trailing lines, so tags and entities are
// never split.
func (m StructuredMessage) RenderHTML() string {
	var b strings.Builder
	if title := strings.TrimSpace(m.Title); title != "" {
		icon := strings.TrimSpace(m.Icon)
		if icon != "" {
			b.WriteString(icon + " ")
		}
		b.WriteString("<b>" + escape(title) + "</b>")
		if icon != "" {
			b.WriteString(" " + icon)
		}
		b.WriteString("\n\n")
	}
	if sub := strings.TrimSpace(m.Subtitle); sub != "" {
		b.WriteString(escape(sub) + "\n")
	}
	for _, sec := range m.Sections {
		block := renderSection(sec)
		if block == "" {
			continue
		}
		b.WriteString(block)
		b.WriteString("\n")
	}
	for _, line := range sanitizeLines(m.Footer) {
		b.WriteString(escape(line) + "\n")
	}
	if !m.Timestamp.IsZero() {
		ts := m.Timestamp
		if m.Location != nil {
			ts = ts.In(m.Location)
		}
		b.WriteString("\n<b>Time:</b> " + ts.Format("15:04:05 MST"))
	}
	return text.TruncateLines(strings.TrimSpace(b.String()), MaxMessageLen)
}

func renderSection(sec MessageSection) string {
	lines := sanitizeLines(sec.Lines)
	if len(sec.Fields) == 0 && len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	if title := strings.TrimSpace(sec.Title); title != "" {
		b.WriteString("<b>" + escape(title) + "</b>\n")
	}
	for _, f := range sec.Fields {
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		b.WriteString("<b>" + escape(f.Label) + ":</b> " + escape(f.Value) + "\n")
	}
	for _, line := range lines {
		b.WriteString(escape(line) + "\n")
	}
	return b.String()
}

func escape(s string) string {
	return html.EscapeString(text.Truncate(s, maxFieldLen))
}

func sanitizeLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Branding is the fixed text around every alert.
type Branding struct {
	Title      string
	Signature  string
	Disclaimer string
}

func DefaultBranding() Branding {
	return Branding{
		Title:      "ROSHI CLOUD SIGNAL",
		Signature:  "Strategy by Roshin",
		Disclaimer: "⚡ Disclaimer: Trading involves risk",
	}
}

// AlertMessage is one gated signal ready to send.
type AlertMessage struct {
	Signal    strategy.Signal
	Metrics   risk.Metrics
	Branding  Branding
	Timestamp time.Time
	Location  *time.Location
}

func (a AlertMessage) Structured() StructuredMessage {
	sig := a.Signal
	icon := "🟢"
	if sig.Action == strategy.ActionSell {
		icon = "🔴"
	}
	brand := a.Branding
	if brand.Title == "" {
		brand = DefaultBranding()
	}

	prices := []MessageField{{Label: "Entry", Value: rupees(sig.Entry)}}
	for i, tgt := range sig.Targets {
		label := "Target"
		if len(sig.Targets) > 1 {
			label = fmt.Sprintf("Target %d", i+1)
		}
		value := rupees(tgt)
		if i < len(a.Metrics.Targets) {
			value += fmt.Sprintf(" (net %s)", rupees(a.Metrics.Targets[i].Net))
		}
		prices = append(prices, MessageField{Label: label, Value: value})
	}
	prices = append(prices, MessageField{Label: "Stop Loss", Value: rupees(sig.StopLoss)})

	metrics := []MessageField{
		{Label: "Risk-Reward", Value: fmt.Sprintf("1:%.2f", a.Metrics.RiskReward)},
		{Label: "Position", Value: positionText(a.Metrics)},
		{Label: "Confidence", Value: string(sig.Confidence)},
		{Label: "Hold", Value: sig.Hold},
	}

	return StructuredMessage{
		Icon:     icon,
		Title:    brand.Title,
		Sections: []MessageSection{
			{Lines: []string{fmt.Sprintf("%s | %s | %s | %s", sig.Instrument.Name, sig.Strategy, sig.Setup, sig.Action)}},
			{Fields: prices},
			{Fields: metrics},
			{Fields: []MessageField{{Label: "Strategy", Value: sig.Reason}}},
		},
		Footer:    []string{brand.Signature, brand.Disclaimer},
		Timestamp: a.Timestamp,
		Location:  a.Location,
	}
}

func (a AlertMessage) RenderHTML() string {
	return a.Structured().RenderHTML()
}

// StartupMessage announces that the scanner is live.
func StartupMessage(instruments int, interval time.Duration, session string, now time.Time, loc *time.Location) string {
	return StructuredMessage{
		Icon:  "🚀",
		Title: "ROSHI SCANNER STARTED",
		Sections: []MessageSection{{Fields: []MessageField{
			{Label: "Instruments", Value: fmt.Sprintf("%d", instruments)},
			{Label: "Scan interval", Value: interval.String()},
			{Label: "Session", Value: session},
		}}},
		Footer:    []string{DefaultBranding().Signature},
		Timestamp: now,
		Location:  loc,
	}.RenderHTML()
}

func rupees(v float64) string {
	return fmt.Sprintf("₹%.2f", v)
}

func positionText(m risk.Metrics) string {
	if m.Position == "" {
		return m.PositionNote
	}
	if m.PositionNote == "" {
		return string(m.Position)
	}
	return fmt.Sprintf("%s (%s)", m.Position, m.PositionNote)
}
