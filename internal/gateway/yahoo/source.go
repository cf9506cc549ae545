// Package yahoo implements market.Source over the Yahoo Finance chart API,
// which serves NSE equities (RELIANCE.NS) and indices (^NSEI, ^NSEBANK).
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"roshi/internal/logger"
	"roshi/internal/market"
	"roshi/internal/pkg/circuit"
	"roshi/internal/scheduler"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 4 << 20

type Source struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	breaker *circuit.CircuitBreaker
}

var _ market.Source = (*Source)(nil)

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	return &Source{
		cfg:     final,
		client:  &http.Client{Timeout: final.HTTPTimeout},
		limiter: rate.NewLimiter(rate.Limit(float64(final.RequestsPerMinute)/60.0), final.Burst),
		breaker: circuit.NewCircuitBreaker("yahoo", final.BreakerThreshold, final.BreakerCooldown),
	}
}

func (s *Source) Name() string { return "yahoo" }

// Breaker exposes the upstream circuit for status reporting.
func (s *Source) Breaker() *circuit.CircuitBreaker { return s.breaker }

func (s *Source) FetchHistory(ctx context.Context, req market.HistoryRequest) ([]market.Candle, error) {
	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval := strings.ToLower(strings.TrimSpace(req.Interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	lookback := strings.ToLower(strings.TrimSpace(req.Lookback))
	if lookback == "" {
		lookback = "2d"
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var out []market.Candle
	err := s.breaker.Do(func() error {
		var ferr error
		out, ferr = s.fetch(ctx, symbol, lookback, interval)
		return ferr
	}, func(err error) bool {
		return errors.Is(err, market.ErrNoData) || errors.Is(err, context.Canceled)
	})
	if err != nil {
		if errors.Is(err, circuit.ErrOpen) {
			return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
		}
		return nil, err
	}
	if s.cfg.DropPartialBar {
		if dur, ok := scheduler.ParseIntervalDuration(interval); ok {
			out = scheduler.DropUnclosedCandle(out, dur)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, market.ErrNoData)
	}
	return out, nil
}

func (s *Source) fetch(ctx context.Context, symbol, lookback, interval string) ([]market.Candle, error) {
	q := url.Values{}
	q.Set("range", lookback)
	q.Set("interval", interval)
	q.Set("includePrePost", "false")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", s.cfg.BaseURL, url.PathEscape(symbol), q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", s.cfg.UserAgent)
	httpReq.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: read body: %w", symbol, err)
	}
	logger.Debugf("yahoo: %s range=%s interval=%s status=%d bytes=%d in %s",
		symbol, lookback, interval, resp.StatusCode, len(body), time.Since(started).Truncate(time.Millisecond))

	dur, _ := scheduler.ParseIntervalDuration(interval)
	candles, perr := parseChart(body, dur)
	if resp.StatusCode/100 != 2 {
		if perr != nil && gjson.ValidBytes(body) {
			return nil, fmt.Errorf("yahoo %s: status=%d: %w", symbol, resp.StatusCode, perr)
		}
		return nil, fmt.Errorf("yahoo %s: status=%d", symbol, resp.StatusCode)
	}
	if perr != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, perr)
	}
	return candles, nil
}

// parseChart converts a chart response into candles, skipping rows where any
// OHLC value is null (Yahoo emits those for halted or not-yet-traded bars).
func parseChart(body []byte, interval time.Duration) ([]market.Candle, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid chart json")
	}
	root := gjson.ParseBytes(body)
	if chartErr := root.Get("chart.error"); chartErr.Exists() && chartErr.Type != gjson.Null {
		code := chartErr.Get("code").String()
		desc := chartErr.Get("description").String()
		if strings.EqualFold(code, "Not Found") {
			return nil, fmt.Errorf("%w: %s", market.ErrNoData, desc)
		}
		return nil, fmt.Errorf("chart error %s: %s", code, desc)
	}
	result := root.Get("chart.result.0")
	if !result.Exists() {
		return nil, market.ErrNoData
	}
	stamps := result.Get("timestamp").Array()
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	out := make([]market.Candle, 0, len(stamps))
	for i, ts := range stamps {
		if i >= len(opens) || i >= len(highs) || i >= len(lows) || i >= len(closes) {
			break
		}
		if isNull(opens[i]) || isNull(highs[i]) || isNull(lows[i]) || isNull(closes[i]) {
			continue
		}
		openMs := ts.Int() * 1000
		c := market.Candle{
			OpenTime: openMs,
			Open:     opens[i].Float(),
			High:     highs[i].Float(),
			Low:      lows[i].Float(),
			Close:    closes[i].Float(),
		}
		if i < len(volumes) {
			c.Volume = volumes[i].Float()
		}
		if interval > 0 {
			c.CloseTime = openMs + interval.Milliseconds() - 1
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, market.ErrNoData
	}
	return out, nil
}

func isNull(v gjson.Result) bool {
	return v.Type == gjson.Null
}
