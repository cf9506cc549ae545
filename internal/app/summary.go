package app

import (
	"fmt"
	"strings"

	"roshi/internal/catalog"
	brcfg "roshi/internal/config"
	"roshi/internal/gateway/notifier"
	"roshi/internal/scheduler"
)

type StartupSummary struct {
	Instruments []string
	Strategies  []string
	Bindings    []string
	Schedule    string
	Session     string
	Market      string
	Dedup       string
	Notifier    string
	HTTP        string
}

func newStartupSummary(cfg *brcfg.Config, snap catalog.Snapshot, session *scheduler.Session, n notifier.TextNotifier) *StartupSummary {
	s := &StartupSummary{
		Schedule: fmt.Sprintf("every %s (offset %s, run immediately=%v)", cfg.Scan.Interval(), cfg.Scan.Offset(), cfg.Scan.RunImmediately),
		Session:  "always open",
		Market:   fmt.Sprintf("%s %s bars over %s, pace %s", cfg.Market.Source, cfg.Market.Interval, cfg.Market.Lookback, cfg.Scan.Pace()),
		Dedup:    fmt.Sprintf("%s policy, window %s, %s store", cfg.Dedup.Policy, cfg.Dedup.Window(), cfg.Dedup.Store),
		Notifier: "telegram",
		HTTP:     "disabled",
	}
	if session != nil {
		s.Session = session.String()
	}
	if noop, ok := n.(notifier.Noop); ok {
		s.Notifier = "log only (" + noop.Reason + ")"
	}
	if cfg.App.HTTPEnabled {
		s.HTTP = cfg.App.HTTPAddr
	}
	for _, inst := range snap.Catalog.Instruments {
		s.Instruments = append(s.Instruments, inst.String())
	}
	for _, def := range snap.Catalog.Strategies {
		s.Strategies = append(s.Strategies, fmt.Sprintf("%s targets=%v sl=%.2f%% hold=%s", def.Name, def.Targets, def.StopLossPct, def.Hold))
	}
	for _, b := range snap.Catalog.Bindings {
		state := "on"
		if !b.Enabled {
			state = "off"
		}
		s.Bindings = append(s.Bindings, fmt.Sprintf("%s -> %s (%s)", b.Setup, b.Strategy, state))
	}
	return s
}

func (s *StartupSummary) String() string {
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 72) + "\n")
	b.WriteString("ROSHI SCANNER STARTUP SUMMARY\n")
	b.WriteString(strings.Repeat("=", 72) + "\n")
	fmt.Fprintf(&b, "  Schedule : %s\n", s.Schedule)
	fmt.Fprintf(&b, "  Session  : %s\n", s.Session)
	fmt.Fprintf(&b, "  Market   : %s\n", s.Market)
	fmt.Fprintf(&b, "  Dedup    : %s\n", s.Dedup)
	fmt.Fprintf(&b, "  Notifier : %s\n", s.Notifier)
	fmt.Fprintf(&b, "  HTTP     : %s\n", s.HTTP)
	fmt.Fprintf(&b, "  Instruments (%d): %s\n", len(s.Instruments), formatList(s.Instruments))
	b.WriteString("  Strategies:\n")
	for _, line := range s.Strategies {
		fmt.Fprintf(&b, "    - %s\n", line)
	}
	b.WriteString("  Bindings:\n")
	for _, line := range s.Bindings {
		fmt.Fprintf(&b, "    - %s\n", line)
	}
	b.WriteString(strings.Repeat("=", 72))
	return b.String()
}

func (s *StartupSummary) Print() {
	fmt.Println(s.String())
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
