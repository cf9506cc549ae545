package market

import (
	"context"
	"errors"
)

// ErrNoData is returned when a fetch succeeds but yields no usable bars.
var ErrNoData = errors.New("market: no data")

// HistoryRequest describes a trailing window of bars.
// Lookback uses the provider's range notation ("1d", "2d", "5d"),
// Interval the bar size ("1m", "5m", "15m", "1h", "1d").
type HistoryRequest struct {
	Symbol   string
	Lookback string
	Interval string
}

// Source supplies ordered OHLCV bars for a symbol. An empty result must be
// reported as ErrNoData so callers can treat both failure shapes alike.
type Source interface {
	FetchHistory(ctx context.Context, req HistoryRequest) ([]Candle, error)
	Name() string
}
