// Package levels reduces a bar sequence to the price levels the signal rules
// read: support, resistance, relative volume, trend and short-term volatility.
package levels

import (
	"errors"
	"fmt"
	"math"

	"roshi/internal/market"

	"github.com/markcheno/go-talib"
)

// ErrInsufficientData is returned when fewer than Settings.Window bars exist.
var ErrInsufficientData = errors.New("levels: insufficient data")

type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
)

const (
	DefaultWindow           = 20
	DefaultFastMA           = 20
	DefaultSlowMA           = 50
	DefaultVolatilityWindow = 10
)

type Settings struct {
	Window           int `json:"window"`
	FastMA           int `json:"fast_ma"`
	SlowMA           int `json:"slow_ma"`
	VolatilityWindow int `json:"volatility_window"`
}

func DefaultSettings() Settings {
	return Settings{
		Window:           DefaultWindow,
		FastMA:           DefaultFastMA,
		SlowMA:           DefaultSlowMA,
		VolatilityWindow: DefaultVolatilityWindow,
	}
}

func (s Settings) withDefaults() Settings {
	if s.Window < 2 {
		s.Window = DefaultWindow
	}
	if s.FastMA < 2 {
		s.FastMA = DefaultFastMA
	}
	if s.SlowMA < 2 {
		s.SlowMA = DefaultSlowMA
	}
	if s.VolatilityWindow < 2 {
		s.VolatilityWindow = DefaultVolatilityWindow
	}
	return s
}

// Levels is the snapshot derived from the most recent bars.
// Support <= Resistance is not enforced.
type Levels struct {
	CurrentPrice  float64 `json:"current_price"`
	Support       float64 `json:"support"`
	Resistance    float64 `json:"resistance"`
	VolumeRatio   float64 `json:"volume_ratio"`
	Trend         Trend   `json:"trend"`
	MAFast        float64 `json:"ma_fast"`
	MASlow        float64 `json:"ma_slow"`
	VolatilityPct float64 `json:"volatility_pct"`
	Bars          int     `json:"bars"`
	// SlowWindowFilled is false when MASlow was averaged over fewer bars
	// than Settings.SlowMA.
	SlowWindowFilled bool `json:"slow_window_filled"`
}

// Compute derives Levels from candles ordered oldest first. Only the trailing
// windows are read. It is pure and never divides by zero.
func Compute(candles []market.Candle, settings Settings) (Levels, error) {
	cfg := settings.withDefaults()
	n := len(candles)
	if n < cfg.Window {
		return Levels{}, fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientData, n, cfg.Window)
	}
	closes := market.Closes(candles)
	highs := market.Highs(candles)
	lows := market.Lows(candles)
	volumes := market.Volumes(candles)

	out := Levels{
		CurrentPrice: closes[n-1],
		Bars:         n,
	}
	out.Resistance = lastValid(talib.Max(highs, cfg.Window))
	out.Support = lastValid(talib.Min(lows, cfg.Window))

	avgVolume := lastValid(talib.Sma(volumes, cfg.Window))
	out.VolumeRatio = 1.0
	if avgVolume > 0 {
		out.VolumeRatio = volumes[n-1] / avgVolume
	}

	fast := clampPeriod(cfg.FastMA, n)
	slow := clampPeriod(cfg.SlowMA, n)
	out.SlowWindowFilled = slow == cfg.SlowMA
	out.MAFast = lastValid(talib.Sma(closes, fast))
	out.MASlow = lastValid(talib.Sma(closes, slow))
	out.Trend = TrendBearish
	if out.MAFast > out.MASlow {
		out.Trend = TrendBullish
	}

	vw := clampPeriod(cfg.VolatilityWindow, n)
	hi := lastValid(talib.Max(highs, vw))
	lo := lastValid(talib.Min(lows, vw))
	if out.CurrentPrice > 0 {
		out.VolatilityPct = (hi - lo) / out.CurrentPrice * 100
	}
	return out, nil
}

func clampPeriod(period, n int) int {
	if period > n {
		return n
	}
	return period
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) && !math.IsInf(series[i], 0) {
			return series[i]
		}
	}
	return 0
}
