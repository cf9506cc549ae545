package yahoo

import (
	"strings"
	"time"
)

const (
	defaultBaseURL          = "https://query1.finance.yahoo.com"
	defaultUserAgent        = "Mozilla/5.0 (compatible; roshi-scanner/1.0)"
	defaultHTTPTimeout      = 15 * time.Second
	defaultRequestsPerMin   = 60
	defaultBurst            = 5
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = time.Minute
)

type Config struct {
	BaseURL     string
	UserAgent   string
	HTTPTimeout time.Duration

	RequestsPerMinute int
	Burst             int

	BreakerThreshold int
	BreakerCooldown  time.Duration

	// DropPartialBar removes the still-forming last bar before returning.
	DropPartialBar bool
}

func (c *Config) withDefaults() Config {
	out := *c
	out.BaseURL = strings.TrimRight(strings.TrimSpace(out.BaseURL), "/")
	if out.BaseURL == "" {
		out.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(out.UserAgent) == "" {
		out.UserAgent = defaultUserAgent
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = defaultHTTPTimeout
	}
	if out.RequestsPerMinute <= 0 {
		out.RequestsPerMinute = defaultRequestsPerMin
	}
	if out.Burst <= 0 {
		out.Burst = defaultBurst
	}
	if out.BreakerThreshold <= 0 {
		out.BreakerThreshold = defaultBreakerThreshold
	}
	if out.BreakerCooldown <= 0 {
		out.BreakerCooldown = defaultBreakerCooldown
	}
	return out
}
