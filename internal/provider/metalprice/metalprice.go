package metalprice

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strings"
    "time"

    "github.com/tidwall/gjson"

    "pricefeed/internal/httpx"
    "pricefeed/internal/provider"
)

// Adapter quotes the forex/commodity universe (metals, oil, fiat pairs).
// Requires an API key; without one the adapter is not wired at all and the
// whole universe resolves as unavailable.
type Adapter struct {
    name    string
    baseURL string
    apiKey  string
    client  *httpx.Client
    // codes maps a canonical id (e.g. "xau", "eurusd") to the upstream
    // currency code quoted against USD.
    codes map[string]string
}

type Config struct {
    BaseURL string
    APIKey  string
    Codes   map[string]string
}

func New(cfg Config, hc *httpx.Client) *Adapter {
    if cfg.BaseURL == "" { cfg.BaseURL = "https://api.metalpriceapi.com/v1" }
    return &Adapter{name: "MetalPrice", baseURL: cfg.BaseURL, apiKey: cfg.APIKey, client: hc, codes: cfg.Codes}
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Resolve(ctx context.Context, symbol string) (provider.PriceRecord, error) {
    code, ok := a.codes[symbol]
    if !ok {
        return provider.PriceRecord{}, fmt.Errorf("%s: no upstream code for %s: %w", a.name, symbol, provider.ErrBadData)
    }

    body, err := a.get(ctx, "/latest", url.Values{"base": {"USD"}, "currencies": {code}})
    if err != nil { return provider.PriceRecord{}, err }

    rate := gjson.GetBytes(body, "rates."+code)
    if !rate.Exists() || rate.Float() <= 0 {
        return provider.PriceRecord{}, fmt.Errorf("%s %s: missing rate: %w", a.name, symbol, provider.ErrBadData)
    }
    rec := provider.PriceRecord{
        Symbol:     symbol,
        Price:      fromRate(symbol, rate.Float()),
        ObservedAt: observedAt(gjson.GetBytes(body, "timestamp").Int()),
    }
    if !rec.Valid() {
        return provider.PriceRecord{}, fmt.Errorf("%s %s: %w", a.name, symbol, provider.ErrBadData)
    }

    // Best-effort daily range; a failure here never fails the resolution,
    // the optional fields are simply left absent.
    if ohlc, err := a.get(ctx, "/ohlc", url.Values{"base": {"USD"}, "currency": {code}}); err == nil {
        if high := gjson.GetBytes(ohlc, "rate.high"); high.Exists() && high.Float() > 0 {
            v := fromRate(symbol, high.Float())
            rec.High24h = &v
        }
        if low := gjson.GetBytes(ohlc, "rate.low"); low.Exists() && low.Float() > 0 {
            v := fromRate(symbol, low.Float())
            rec.Low24h = &v
        }
        // Rates invert, so the upstream high bounds our low and vice versa.
        if rec.High24h != nil && rec.Low24h != nil && *rec.High24h < *rec.Low24h {
            rec.High24h, rec.Low24h = rec.Low24h, rec.High24h
        }
    }
    return rec, nil
}

func (a *Adapter) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
    q.Set("api_key", a.apiKey)
    endpoint := fmt.Sprintf("%s%s?%s", a.baseURL, path, q.Encode())
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
    if err != nil { return nil, err }
    resp, err := a.client.Do(ctx, req)
    if err != nil { return nil, err }
    defer resp.Body.Close()
    body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
    if err != nil { return nil, fmt.Errorf("read body: %w", err) }
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return nil, fmt.Errorf("GET %s -> %d", path, resp.StatusCode)
    }
    if ok := gjson.GetBytes(body, "success"); ok.Exists() && !ok.Bool() {
        return nil, fmt.Errorf("%s: upstream error: %s", path, gjson.GetBytes(body, "error.info").String())
    }
    return body, nil
}

// fromRate converts a USD-based rate to the pair's conventional quote.
// Pairs quoted USD-first (usdjpy, usdchf) use the rate directly; everything
// else (metals, eurusd, ...) is the inverse of units-per-USD.
func fromRate(symbol string, rate float64) float64 {
    if strings.HasPrefix(symbol, "usd") {
        return rate
    }
    if rate == 0 { return 0 }
    return 1 / rate
}

func observedAt(epoch int64) time.Time {
    if epoch <= 0 { return time.Now().UTC() }
    return time.Unix(epoch, 0).UTC()
}
