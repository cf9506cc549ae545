package config

import (
	"fmt"
	"strings"

	"roshi/internal/scheduler"
)

func validate(c *Config) error {
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Scan.validate(); err != nil {
		return err
	}
	if err := c.Session.validate(); err != nil {
		return err
	}
	if err := c.Levels.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	if err := c.Dedup.validate(); err != nil {
		return err
	}
	return nil
}

func (m *MarketConfig) validate() error {
	if m.Source != defaultMarketSource {
		return fmt.Errorf("market.source %q not supported (want yahoo)", m.Source)
	}
	if _, ok := scheduler.ParseIntervalDuration(m.Interval); !ok {
		return fmt.Errorf("market.interval %q is invalid", m.Interval)
	}
	if _, ok := scheduler.ParseIntervalDuration(m.Lookback); !ok {
		return fmt.Errorf("market.lookback %q is invalid", m.Lookback)
	}
	if m.TimeoutSeconds <= 0 {
		return fmt.Errorf("market.timeout_seconds must be > 0")
	}
	return nil
}

func (s *ScanConfig) validate() error {
	if s.IntervalSeconds <= 0 {
		return fmt.Errorf("scan.interval_seconds must be > 0")
	}
	if s.OffsetSeconds < 0 || s.OffsetSeconds >= s.IntervalSeconds {
		return fmt.Errorf("scan.offset_seconds must be in [0, interval_seconds)")
	}
	if s.PaceMillis < 0 {
		return fmt.Errorf("scan.pace_millis must be >= 0")
	}
	return nil
}

func (s *SessionConfig) validate() error {
	if !s.Enabled {
		return nil
	}
	if _, err := scheduler.NewSession(s.Timezone, s.Open, s.Close, s.Weekdays); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

func (l *LevelsConfig) validate() error {
	if l.Window < 2 || l.FastMA < 2 || l.SlowMA < 2 || l.VolatilityWindow < 2 {
		return fmt.Errorf("levels windows must be >= 2")
	}
	if l.FastMA >= l.SlowMA {
		return fmt.Errorf("levels.fast_ma (%d) must be shorter than levels.slow_ma (%d)", l.FastMA, l.SlowMA)
	}
	return nil
}

func (r *RiskConfig) validate() error {
	if r.TransactionCost < 0 {
		return fmt.Errorf("risk.transaction_cost must be >= 0")
	}
	if r.MinRiskReward < 0 {
		return fmt.Errorf("risk.min_risk_reward must be >= 0")
	}
	if r.AggressiveBelowPct <= 0 || r.ModerateBelowPct <= r.AggressiveBelowPct {
		return fmt.Errorf("risk bands must satisfy 0 < aggressive_below_pct < moderate_below_pct")
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("risk.quantity must be > 0")
	}
	return nil
}

func (d *DedupConfig) validate() error {
	switch d.Policy {
	case "window", "once":
	default:
		return fmt.Errorf("dedup.policy %q must be window or once", d.Policy)
	}
	if d.Policy == "window" && d.WindowMinutes <= 0 {
		return fmt.Errorf("dedup.window_minutes must be > 0")
	}
	switch d.Store {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(d.SQLitePath) == "" {
			return fmt.Errorf("dedup.sqlite_path is required for the sqlite store")
		}
	case "redis":
		if strings.TrimSpace(d.Redis.Addr) == "" {
			return fmt.Errorf("dedup.redis.addr is required for the redis store")
		}
	default:
		return fmt.Errorf("dedup.store %q must be memory, sqlite or redis", d.Store)
	}
	return nil
}
