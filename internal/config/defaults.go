package config

import "strings"

const (
	defaultAppEnv             = "dev"
	defaultAppLogLevel        = "info"
	defaultAppLogFormat       = "text"
	defaultAppHTTPAddr        = ":9991"
	defaultMarketSource       = "yahoo"
	defaultMarketBaseURL      = "https://query1.finance.yahoo.com"
	defaultMarketLookback     = "2d"
	defaultMarketInterval     = "15m"
	defaultMarketTimeout      = 15
	defaultMarketRPM          = 60
	defaultMarketBurst        = 5
	defaultBreakerThreshold   = 5
	defaultBreakerCooldown    = 60
	defaultScanInterval       = 120
	defaultScanPaceMillis     = 500
	defaultSessionTimezone    = "Asia/Kolkata"
	defaultSessionOpen        = "09:15"
	defaultSessionClose       = "15:30"
	defaultLevelsWindow       = 20
	defaultLevelsFastMA       = 20
	defaultLevelsSlowMA       = 50
	defaultLevelsVolatility   = 10
	defaultTransactionCost    = 40
	defaultMinRiskReward      = 1.8
	defaultMinNetProfit       = 50
	defaultAggressiveBelowPct = 1
	defaultModerateBelowPct   = 2
	defaultQuantity           = 1
	defaultDedupPolicy        = "window"
	defaultDedupWindowMinutes = 30
	defaultDedupStore         = "memory"
	defaultDedupMaxEntries    = 1000
	defaultDedupSQLitePath    = "data/alerts.db"
	defaultRedisPrefix        = "roshi"
	defaultTelegramTimeout    = 10
	defaultCatalogPath        = "configs/catalog.yaml"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Scan.applyDefaults(keys)
	c.Session.applyDefaults(keys)
	c.Levels.applyDefaults(keys)
	c.Risk.applyDefaults(keys)
	c.Dedup.applyDefaults(keys)
	c.Notify.Telegram.applyDefaults(keys)
	c.Catalog.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_format", &a.LogFormat, defaultAppLogFormat),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		boolFieldDefault("app.http_enabled", &a.HTTPEnabled, true),
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.source", &m.Source, defaultMarketSource),
		stringFieldDefault("market.base_url", &m.BaseURL, defaultMarketBaseURL),
		stringFieldDefault("market.lookback", &m.Lookback, defaultMarketLookback),
		stringFieldDefault("market.interval", &m.Interval, defaultMarketInterval),
		intFieldDefault("market.timeout_seconds", &m.TimeoutSeconds, defaultMarketTimeout),
		intFieldDefault("market.requests_per_minute", &m.RequestsPerMinute, defaultMarketRPM),
		intFieldDefault("market.burst", &m.Burst, defaultMarketBurst),
		intFieldDefault("market.breaker_threshold", &m.BreakerThreshold, defaultBreakerThreshold),
		intFieldDefault("market.breaker_cooldown_seconds", &m.BreakerCooldownSeconds, defaultBreakerCooldown),
	)
	m.Source = strings.ToLower(strings.TrimSpace(m.Source))
}

func (s *ScanConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("scan.interval_seconds", &s.IntervalSeconds, defaultScanInterval),
		intFieldDefault("scan.pace_millis", &s.PaceMillis, defaultScanPaceMillis),
		boolFieldDefault("scan.run_immediately", &s.RunImmediately, true),
	)
}

func (s *SessionConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("session.enabled", &s.Enabled, true),
		stringFieldDefault("session.timezone", &s.Timezone, defaultSessionTimezone),
		stringFieldDefault("session.open", &s.Open, defaultSessionOpen),
		stringFieldDefault("session.close", &s.Close, defaultSessionClose),
	)
}

func (l *LevelsConfig) applyDefaults(keys keySet) {
	if l == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("levels.window", &l.Window, defaultLevelsWindow),
		intFieldDefault("levels.fast_ma", &l.FastMA, defaultLevelsFastMA),
		intFieldDefault("levels.slow_ma", &l.SlowMA, defaultLevelsSlowMA),
		intFieldDefault("levels.volatility_window", &l.VolatilityWindow, defaultLevelsVolatility),
	)
}

func (r *RiskConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("risk.transaction_cost", &r.TransactionCost, defaultTransactionCost),
		floatFieldDefault("risk.min_risk_reward", &r.MinRiskReward, defaultMinRiskReward),
		floatFieldDefault("risk.min_net_profit", &r.MinNetProfit, defaultMinNetProfit),
		floatFieldDefault("risk.aggressive_below_pct", &r.AggressiveBelowPct, defaultAggressiveBelowPct),
		floatFieldDefault("risk.moderate_below_pct", &r.ModerateBelowPct, defaultModerateBelowPct),
		floatFieldDefault("risk.quantity", &r.Quantity, defaultQuantity),
	)
}

func (d *DedupConfig) applyDefaults(keys keySet) {
	if d == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("dedup.policy", &d.Policy, defaultDedupPolicy),
		intFieldDefault("dedup.window_minutes", &d.WindowMinutes, defaultDedupWindowMinutes),
		stringFieldDefault("dedup.store", &d.Store, defaultDedupStore),
		intFieldDefault("dedup.max_entries", &d.MaxEntries, defaultDedupMaxEntries),
		stringFieldDefault("dedup.sqlite_path", &d.SQLitePath, defaultDedupSQLitePath),
		stringFieldDefault("dedup.redis.prefix", &d.Redis.Prefix, defaultRedisPrefix),
	)
	d.Policy = strings.ToLower(strings.TrimSpace(d.Policy))
	d.Store = strings.ToLower(strings.TrimSpace(d.Store))
}

func (t *TelegramConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("notify.telegram.enabled", &t.Enabled, true),
		boolFieldDefault("notify.telegram.startup_message", &t.StartupMessage, true),
		intFieldDefault("notify.telegram.timeout_seconds", &t.TimeoutSeconds, defaultTelegramTimeout),
	)
}

func (c *CatalogConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("catalog.path", &c.Path, defaultCatalogPath),
		boolFieldDefault("catalog.watch", &c.Watch, true),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
