package coingecko

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "pricefeed/internal/provider"
)

// Adapter exposes the CoinGecko client as the bulk-list provider and the
// primary single-symbol provider.
type Adapter struct {
    name      string
    client    *Client
    listCount int
    // ids maps a canonical ticker to its upstream id candidates, tried in
    // order until one returns a valid positive price.
    ids map[string][]string
}

type AdapterConfig struct {
    Name      string
    ListCount int
    IDs       map[string][]string
}

func NewAdapter(cfg AdapterConfig, client *Client) *Adapter {
    if cfg.Name == "" { cfg.Name = "CoinGecko" }
    if cfg.ListCount <= 0 { cfg.ListCount = 100 }
    return &Adapter{name: cfg.Name, client: client, listCount: cfg.ListCount, ids: cfg.IDs}
}

func (a *Adapter) Name() string { return a.name }

// ResolveList fetches the ranked market snapshot in a single call.
func (a *Adapter) ResolveList(ctx context.Context) (provider.ListSnapshot, error) {
    rows, err := a.client.markets(ctx, nil, a.listCount)
    if err != nil {
        return provider.ListSnapshot{}, err
    }
    now := time.Now().UTC()
    snap := provider.ListSnapshot{
        Records: make([]provider.PriceRecord, 0, len(rows)),
        Prices:  make(map[string]float64, len(rows)),
    }
    for _, row := range rows {
        rec := provider.PriceRecord{
            Symbol:     strings.ToUpper(row.Symbol),
            Price:      row.CurrentPrice,
            High24h:    row.High24h,
            Low24h:     row.Low24h,
            Volume24h:  row.TotalVolume,
            ObservedAt: row.observedAt(now),
        }
        if !rec.Valid() { continue }
        snap.Records = append(snap.Records, rec)
        snap.Prices[rec.Symbol] = rec.Price
    }
    if len(snap.Records) == 0 {
        return provider.ListSnapshot{}, fmt.Errorf("%s: empty market snapshot: %w", a.name, provider.ErrBadData)
    }
    return snap, nil
}

// Resolve tries each upstream id mapped to the symbol until one returns a
// valid price. Symbols without a mapping fail without a network call.
func (a *Adapter) Resolve(ctx context.Context, symbol string) (provider.PriceRecord, error) {
    candidates := a.ids[symbol]
    if len(candidates) == 0 {
        return provider.PriceRecord{}, fmt.Errorf("%s: no upstream id for %s: %w", a.name, symbol, provider.ErrBadData)
    }
    var errs []error
    for _, id := range candidates {
        rows, err := a.client.markets(ctx, []string{id}, 1)
        if err != nil {
            errs = append(errs, fmt.Errorf("%s: %w", id, err))
            continue
        }
        if len(rows) == 0 {
            errs = append(errs, fmt.Errorf("%s: not found", id))
            continue
        }
        row := rows[0]
        rec := provider.PriceRecord{
            Symbol:     symbol,
            Price:      row.CurrentPrice,
            High24h:    row.High24h,
            Low24h:     row.Low24h,
            Volume24h:  row.TotalVolume,
            ObservedAt: row.observedAt(time.Now().UTC()),
        }
        if rec.Valid() {
            return rec, nil
        }
        errs = append(errs, fmt.Errorf("%s: %w", id, provider.ErrBadData))
    }
    return provider.PriceRecord{}, fmt.Errorf("%s: %w", a.name, errors.Join(errs...))
}
