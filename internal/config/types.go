package config

import (
	"strings"
	"time"
)

// Config is the process configuration. The strategy catalog lives in its
// own file (see CatalogConfig).
type Config struct {
	App     AppConfig     `toml:"app"`
	Market  MarketConfig  `toml:"market"`
	Scan    ScanConfig    `toml:"scan"`
	Session SessionConfig `toml:"session"`
	Levels  LevelsConfig  `toml:"levels"`
	Risk    RiskConfig    `toml:"risk"`
	Dedup   DedupConfig   `toml:"dedup"`
	Notify  NotifyConfig  `toml:"notify"`
	Catalog CatalogConfig `toml:"catalog"`
}

type AppConfig struct {
	Env         string `toml:"env"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
	LogPath     string `toml:"log_path"`
	HTTPEnabled bool   `toml:"http_enabled"`
	HTTPAddr    string `toml:"http_addr"`
}

type MarketConfig struct {
	Source                 string `toml:"source"`
	BaseURL                string `toml:"base_url"`
	UserAgent              string `toml:"user_agent"`
	Lookback               string `toml:"lookback"`
	Interval               string `toml:"interval"`
	TimeoutSeconds         int    `toml:"timeout_seconds"`
	RequestsPerMinute      int    `toml:"requests_per_minute"`
	Burst                  int    `toml:"burst"`
	BreakerThreshold       int    `toml:"breaker_threshold"`
	BreakerCooldownSeconds int    `toml:"breaker_cooldown_seconds"`
	DropPartialBar         bool   `toml:"drop_partial_bar"`
}

func (m MarketConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

func (m MarketConfig) BreakerCooldown() time.Duration {
	return time.Duration(m.BreakerCooldownSeconds) * time.Second
}

type ScanConfig struct {
	IntervalSeconds int  `toml:"interval_seconds"`
	OffsetSeconds   int  `toml:"offset_seconds"`
	RunImmediately  bool `toml:"run_immediately"`
	// PaceMillis is the minimum gap between two instrument fetches.
	PaceMillis int `toml:"pace_millis"`
}

func (s ScanConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

func (s ScanConfig) Offset() time.Duration {
	return time.Duration(s.OffsetSeconds) * time.Second
}

func (s ScanConfig) Pace() time.Duration {
	return time.Duration(s.PaceMillis) * time.Millisecond
}

type SessionConfig struct {
	Enabled  bool     `toml:"enabled"`
	Timezone string   `toml:"timezone"`
	Open     string   `toml:"open"`
	Close    string   `toml:"close"`
	Weekdays []string `toml:"weekdays"`
}

type LevelsConfig struct {
	Window           int `toml:"window"`
	FastMA           int `toml:"fast_ma"`
	SlowMA           int `toml:"slow_ma"`
	VolatilityWindow int `toml:"volatility_window"`
}

type RiskConfig struct {
	TransactionCost    float64 `toml:"transaction_cost"`
	MinRiskReward      float64 `toml:"min_risk_reward"`
	MinNetProfit       float64 `toml:"min_net_profit"`
	EnforceStrategyRR  bool    `toml:"enforce_strategy_rr"`
	AggressiveBelowPct float64 `toml:"aggressive_below_pct"`
	ModerateBelowPct   float64 `toml:"moderate_below_pct"`
	Quantity           float64 `toml:"quantity"`
}

type DedupConfig struct {
	Policy        string      `toml:"policy"` // window | once
	WindowMinutes int         `toml:"window_minutes"`
	Store         string      `toml:"store"` // memory | sqlite | redis
	MaxEntries    int         `toml:"max_entries"`
	SQLitePath    string      `toml:"sqlite_path"`
	Redis         RedisConfig `toml:"redis"`
}

func (d DedupConfig) Window() time.Duration {
	return time.Duration(d.WindowMinutes) * time.Minute
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled        bool   `toml:"enabled"`
	BotToken       string `toml:"bot_token"`
	ChatID         string `toml:"chat_id"`
	APIBase        string `toml:"api_base"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	StartupMessage bool   `toml:"startup_message"`
}

// Configured reports whether both credentials are present.
func (t TelegramConfig) Configured() bool {
	return strings.TrimSpace(t.BotToken) != "" && strings.TrimSpace(t.ChatID) != ""
}

func (t TelegramConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

type CatalogConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

// keySet tracks config paths that were set explicitly.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault describes how one field gets its default.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
