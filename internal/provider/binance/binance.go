package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"pricefeed/internal/httpx"
	"pricefeed/internal/provider"
)

// Adapter queries Binance public market data. It serves as a secondary
// single-symbol source (pair ticker convention, e.g. BTC -> BTCUSDT) and as
// the candle source for the chart route.
type Adapter struct {
	name    string
	baseURL string
	client  *httpx.Client
}

func New(baseURL string, client *httpx.Client) *Adapter {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &Adapter{name: "Binance", baseURL: baseURL, client: client}
}

func (a *Adapter) Name() string { return a.name }

// ticker24h is the subset of /api/v3/ticker/24hr we consume.
type ticker24h struct {
	Symbol    string `json:"symbol"`
	LastPrice string `json:"lastPrice"`
	HighPrice string `json:"highPrice"`
	LowPrice  string `json:"lowPrice"`
	Volume    string `json:"volume"`
	CloseTime int64  `json:"closeTime"`
}

// Resolve fetches the 24h ticker for <symbol>USDT.
func (a *Adapter) Resolve(ctx context.Context, symbol string) (provider.PriceRecord, error) {
	endpoint := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%sUSDT", a.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return provider.PriceRecord{}, fmt.Errorf("creating request: %w", err)
	}
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return provider.PriceRecord{}, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return provider.PriceRecord{}, fmt.Errorf("binance error: %d: %s", resp.StatusCode, body)
	}

	var t ticker24h
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return provider.PriceRecord{}, fmt.Errorf("decode response: %w", err)
	}

	price, err := strconv.ParseFloat(t.LastPrice, 64)
	if err != nil {
		return provider.PriceRecord{}, fmt.Errorf("parse lastPrice %q: %w", t.LastPrice, provider.ErrBadData)
	}
	rec := provider.PriceRecord{
		Symbol:     symbol,
		Price:      price,
		High24h:    parseOptional(t.HighPrice),
		Low24h:     parseOptional(t.LowPrice),
		Volume24h:  parseOptional(t.Volume),
		ObservedAt: observedAt(t.CloseTime),
	}
	if !rec.Valid() {
		return provider.PriceRecord{}, fmt.Errorf("%s %s: %w", a.name, symbol, provider.ErrBadData)
	}
	return rec, nil
}

// Candles fetches recent klines for a raw pair ticker (e.g. BTCUSDT).
// Binance encodes each kline as a positional JSON array.
func (a *Adapter) Candles(ctx context.Context, pair string, limit int) ([]provider.Candle, error) {
	if limit <= 0 {
		limit = 48
	}
	endpoint := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=1h&limit=%d", a.baseURL, pair, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return nil, fmt.Errorf("binance error: %d: %s", resp.StatusCode, body)
	}

	// Each kline mixes types: open time is a number, prices are strings.
	var raw [][]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	candles := make([]provider.Candle, 0, len(raw))
	for _, k := range raw {
		// [openTime, open, high, low, close, volume, ...]
		if len(k) < 5 {
			continue
		}
		openTime, ok1 := asFloat(k[0])
		open, ok2 := asFloat(k[1])
		high, ok3 := asFloat(k[2])
		low, ok4 := asFloat(k[3])
		closePrice, ok5 := asFloat(k[4])
		if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
			continue
		}
		candles = append(candles, provider.Candle{
			Time:  int64(openTime) / 1000,
			Open:  open,
			High:  high,
			Low:   low,
			Close: closePrice,
		})
	}
	return candles, nil
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

func parseOptional(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

func observedAt(closeTimeMillis int64) time.Time {
	if closeTimeMillis <= 0 {
		return time.Now().UTC()
	}
	return time.UnixMilli(closeTimeMillis).UTC()
}
