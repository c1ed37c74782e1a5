package coinbase

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

// Adapter queries the Coinbase spot-price endpoint. Tertiary source: price
// only, no 24h fields, path-style pair id (BTC-USD).
type Adapter struct {
    name    string
    baseURL string
    client  *httpx.Client
}

func New(baseURL string, client *httpx.Client) *Adapter {
    if baseURL == "" { baseURL = "https://api.coinbase.com" }
    return &Adapter{name: "Coinbase", baseURL: baseURL, client: client}
}

func (a *Adapter) Name() string { return a.name }

type spotResponse struct {
    Data struct {
        Amount   string `json:"amount"`
        Currency string `json:"currency"`
    } `json:"data"`
}

func (a *Adapter) Resolve(ctx context.Context, symbol string) (provider.PriceRecord, error) {
    endpoint := fmt.Sprintf("%s/v2/prices/%s-USD/spot", a.baseURL, symbol)
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
    if err != nil { return provider.PriceRecord{}, err }
    resp, err := a.client.Do(ctx, req)
    if err != nil { return provider.PriceRecord{}, err }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
        return provider.PriceRecord{}, fmt.Errorf("GET %s -> %d: %s", endpoint, resp.StatusCode, string(b))
    }
    var body spotResponse
    if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
        return provider.PriceRecord{}, fmt.Errorf("decode: %w", err)
    }
    price, err := strconv.ParseFloat(body.Data.Amount, 64)
    if err != nil {
        return provider.PriceRecord{}, fmt.Errorf("parse amount %q: %w", body.Data.Amount, provider.ErrBadData)
    }
    rec := provider.PriceRecord{Symbol: symbol, Price: price, ObservedAt: time.Now().UTC()}
    if !rec.Valid() {
        return provider.PriceRecord{}, fmt.Errorf("%s %s: %w", a.name, symbol, provider.ErrBadData)
    }
    return rec, nil
}
