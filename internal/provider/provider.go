package provider

import (
    "context"
    "errors"
    "math"
    "time"
)

// ErrBadData marks an upstream response that parsed but carried no usable
// price (missing, zero, negative or non-finite). Callers treat it the same
// as a transport failure: skip the adapter and try the next one.
var ErrBadData = errors.New("provider: bad price data")

// PriceRecord is the normalized shape returned by all adapters.
// High24h/Low24h/Volume24h are nil when the upstream does not report them.
type PriceRecord struct {
    Symbol     string    `json:"symbol"`
    Price      float64   `json:"price"`
    High24h    *float64  `json:"high_24h,omitempty"`
    Low24h     *float64  `json:"low_24h,omitempty"`
    Volume24h  *float64  `json:"volume_24h,omitempty"`
    ObservedAt time.Time `json:"observed_at"`
}

// Valid reports whether the record may be cached or served.
func (r PriceRecord) Valid() bool {
    return r.Price > 0 && !math.IsInf(r.Price, 0) && !math.IsNaN(r.Price)
}

// ListSnapshot is one bulk market fetch: records ordered by market rank plus
// a symbol -> price index derived from them.
type ListSnapshot struct {
    Records []PriceRecord
    Prices  map[string]float64
}

// Candle is a single OHLC bar for the chart route.
type Candle struct {
    Time  int64   `json:"time"`
    Open  float64 `json:"open"`
    High  float64 `json:"high"`
    Low   float64 `json:"low"`
    Close float64 `json:"close"`
}

// SymbolProvider resolves one canonical symbol to a current price.
type SymbolProvider interface {
    Name() string
    Resolve(ctx context.Context, symbol string) (PriceRecord, error)
}

// ListProvider fetches a ranked bulk market snapshot in one call.
type ListProvider interface {
    Name() string
    ResolveList(ctx context.Context) (ListSnapshot, error)
}

// ChartProvider fetches recent OHLC candles for a pair ticker.
type ChartProvider interface {
    Name() string
    Candles(ctx context.Context, pair string, limit int) ([]Candle, error)
}
