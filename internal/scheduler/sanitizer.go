package scheduler

import (
	"time"

	"roshi/internal/market"
)

// DefaultCandleGrace is how long after its nominal close a bar is still
// treated as in progress.
const DefaultCandleGrace = 10 * time.Second

// DropUnclosedCandle drops the last bar when it has not closed yet. Chart
// providers usually return the live bar as the final element.
func DropUnclosedCandle(candles []market.Candle, interval time.Duration) []market.Candle {
	return dropUnclosedCandleAt(candles, interval, time.Now().UTC(), DefaultCandleGrace)
}

func dropUnclosedCandleAt(candles []market.Candle, interval time.Duration, now time.Time, grace time.Duration) []market.Candle {
	if len(candles) == 0 || interval <= 0 {
		return candles
	}
	if grace < 0 {
		grace = 0
	}
	last := candles[len(candles)-1]
	if last.OpenTime <= 0 {
		return candles
	}
	closeMs := last.OpenTime + interval.Milliseconds()
	if now.UnixMilli() < closeMs+grace.Milliseconds() {
		return candles[:len(candles)-1]
	}
	return candles
}
