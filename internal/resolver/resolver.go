package resolver

import (
    "context"
    "errors"
    "fmt"
    "sort"
    "time"

    "go.uber.org/zap"
    "golang.org/x/sync/singleflight"

    "pricefeed/internal/metrics"
    "pricefeed/internal/pricecache"
    "pricefeed/internal/provider"
    "pricefeed/internal/symbol"
)

var (
    // ErrUnsupportedSymbol means the symbol is in no known id table.
    // Raised before any network call.
    ErrUnsupportedSymbol = errors.New("unsupported symbol")
    // ErrUnavailable means every adapter in the chain failed and neither a
    // tolerable stale entry nor a static fallback could serve the request.
    ErrUnavailable = errors.New("no live data from any source")
)

// Quote is a resolved price plus its serving annotations.
type Quote struct {
    Record provider.PriceRecord
    Stale  bool // served from cache after a failed live attempt
    Cached bool // served from a fresh cache entry, no live attempt made
    Static bool // served from the configured static table
}

// ListQuote is a resolved bulk snapshot plus its serving annotations.
type ListQuote struct {
    Snapshot provider.ListSnapshot
    Stale    bool
    Static   bool
}

type Config struct {
    // AttemptTimeout bounds each upstream adapter call.
    AttemptTimeout time.Duration
    // StaticEnabled turns on the last-resort static price table.
    StaticEnabled bool
    StaticPrices  map[string]float64
}

// Resolver owns the fallback chains, the cache and the degradation policy.
// Chains are fixed priority order, never load-balanced: the cheaper and more
// reliable source stays first and failures are easy to reproduce.
type Resolver struct {
    cfg   Config
    table symbol.Table
    norm  *symbol.Normalizer
    cache *pricecache.Store

    cryptoChain []provider.SymbolProvider
    fxChain     []provider.SymbolProvider
    list        provider.ListProvider
    chart       provider.ChartProvider

    static map[string]float64

    sf  singleflight.Group
    log *zap.Logger
    met *metrics.Metrics
}

func New(cfg Config, table symbol.Table, cache *pricecache.Store, log *zap.Logger) *Resolver {
    if cfg.AttemptTimeout <= 0 { cfg.AttemptTimeout = 6 * time.Second }
    if log == nil { log = zap.NewNop() }
    norm := symbol.NewNormalizer(table)
    // Static table keys pass through the normalizer once so lookups use
    // canonical form regardless of how the config spelled them.
    static := make(map[string]float64, len(cfg.StaticPrices))
    for k, v := range cfg.StaticPrices {
        if v > 0 { static[norm.Normalize(k)] = v }
    }
    return &Resolver{cfg: cfg, table: table, norm: norm, cache: cache, static: static, log: log}
}

// Chain configuration. Adapter order is priority order.

func (r *Resolver) SetCryptoChain(ps ...provider.SymbolProvider) { r.cryptoChain = ps }
func (r *Resolver) SetForexChain(ps ...provider.SymbolProvider)  { r.fxChain = ps }
func (r *Resolver) SetListProvider(p provider.ListProvider)      { r.list = p }
func (r *Resolver) SetChartProvider(p provider.ChartProvider)    { r.chart = p }
func (r *Resolver) SetMetrics(m *metrics.Metrics)                { r.met = m }

// Normalize exposes the canonical form of a raw client identifier.
func (r *Resolver) Normalize(raw string) string { return r.norm.Normalize(raw) }

// GetPrice resolves one client-supplied identifier to a quote, consulting
// the per-symbol cache first, then the universe's fallback chain, then the
// degradation policy (stale cache, static table, unavailable).
func (r *Resolver) GetPrice(ctx context.Context, raw string) (Quote, error) {
    sym := r.norm.Normalize(raw)
    uni := r.table.Universe(sym)
    if uni == symbol.UniverseUnknown {
        r.met.RecordResolve("unknown", "unsupported")
        return Quote{}, fmt.Errorf("%q: %w", sym, ErrUnsupportedSymbol)
    }
    universe := universeLabel(uni)

    entry, state := r.cache.Get(sym)
    r.met.RecordCacheLookup("symbol", state.String())
    if state == pricecache.StateFresh {
        r.met.RecordResolve(universe, "cached")
        return Quote{Record: entry.Record, Cached: true}, nil
    }

    rec, liveErr := r.resolveLive(ctx, sym, uni)
    if liveErr == nil {
        r.cache.Put(rec)
        r.met.RecordResolve(universe, "live")
        return Quote{Record: rec}, nil
    }
    r.log.Warn("live resolution failed",
        zap.String("symbol", sym),
        zap.String("cache_state", state.String()),
        zap.Error(liveErr))

    // Degradation gate: stale cache first, then the static table, then an
    // explicit unavailable signal. Expired entries are not acceptable.
    if state == pricecache.StateStaleOK {
        r.met.RecordResolve(universe, "stale")
        return Quote{Record: entry.Record, Stale: true}, nil
    }
    if price, ok := r.staticPrice(sym); ok {
        r.met.RecordResolve(universe, "static")
        return Quote{Record: provider.PriceRecord{Symbol: sym, Price: price}, Static: true}, nil
    }
    r.met.RecordResolve(universe, "unavailable")
    return Quote{}, fmt.Errorf("%s: %w: %w", sym, ErrUnavailable, liveErr)
}

// resolveLive walks the symbol's adapter chain and returns the first valid
// record. Concurrent calls for the same symbol are coalesced into one walk.
func (r *Resolver) resolveLive(ctx context.Context, sym string, uni symbol.Universe) (provider.PriceRecord, error) {
    v, err, _ := r.sf.Do(sym, func() (any, error) {
        chain := r.cryptoChain
        if uni == symbol.UniverseForex { chain = r.fxChain }
        if len(chain) == 0 {
            return nil, fmt.Errorf("no adapters configured for %s", sym)
        }
        var errs []error
        for _, p := range chain {
            actx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
            rec, err := p.Resolve(actx, sym)
            cancel()
            if err != nil {
                // Transport, timeout and data errors are equivalent here:
                // skip the adapter and keep walking the chain.
                r.met.RecordProviderFailure(p.Name())
                r.log.Warn("adapter failed", zap.String("provider", p.Name()), zap.String("symbol", sym), zap.Error(err))
                errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
                continue
            }
            return rec, nil
        }
        return nil, errors.Join(errs...)
    })
    if err != nil {
        return provider.PriceRecord{}, err
    }
    return v.(provider.PriceRecord), nil
}

// GetList resolves the bulk market snapshot. There is no second bulk source,
// so a failed live call goes straight to the degradation gate.
func (r *Resolver) GetList(ctx context.Context) (ListQuote, error) {
    entry, state := r.cache.GetList()
    r.met.RecordCacheLookup("list", state.String())
    if state == pricecache.StateFresh {
        r.met.RecordResolve("crypto", "cached")
        return ListQuote{Snapshot: entry.Snapshot}, nil
    }

    snap, liveErr := r.resolveListLive(ctx)
    if liveErr == nil {
        r.met.RecordResolve("crypto", "live")
        return ListQuote{Snapshot: snap}, nil
    }
    r.log.Warn("list resolution failed", zap.String("cache_state", state.String()), zap.Error(liveErr))

    if state == pricecache.StateStaleOK {
        r.met.RecordResolve("crypto", "stale")
        return ListQuote{Snapshot: entry.Snapshot, Stale: true}, nil
    }
    if r.cfg.StaticEnabled && len(r.static) > 0 {
        r.met.RecordResolve("crypto", "static")
        return ListQuote{Snapshot: r.staticSnapshot(), Static: true}, nil
    }
    r.met.RecordResolve("crypto", "unavailable")
    return ListQuote{}, fmt.Errorf("list: %w: %w", ErrUnavailable, liveErr)
}

// RefreshList performs one live bulk fetch and caches it. Used by the
// background warmer; the HTTP path never depends on it.
func (r *Resolver) RefreshList(ctx context.Context) error {
    _, err := r.resolveListLive(ctx)
    return err
}

func (r *Resolver) resolveListLive(ctx context.Context) (provider.ListSnapshot, error) {
    v, err, _ := r.sf.Do("\x00list", func() (any, error) {
        if r.list == nil {
            return nil, errors.New("no list provider configured")
        }
        actx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
        defer cancel()
        snap, err := r.list.ResolveList(actx)
        if err != nil {
            r.met.RecordProviderFailure(r.list.Name())
            return nil, fmt.Errorf("%s: %w", r.list.Name(), err)
        }
        // A successful bulk fetch also seeds every per-symbol entry.
        r.cache.PutList(snap)
        return snap, nil
    })
    if err != nil {
        return provider.ListSnapshot{}, err
    }
    return v.(provider.ListSnapshot), nil
}

// Candles returns recent chart candles for a raw pair ticker. Chart data is
// decorative; callers are expected to treat an error as an empty series.
func (r *Resolver) Candles(ctx context.Context, pair string, limit int) ([]provider.Candle, error) {
    if r.chart == nil {
        return nil, errors.New("no chart provider configured")
    }
    actx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
    defer cancel()
    candles, err := r.chart.Candles(actx, pair, limit)
    if err != nil {
        r.met.RecordProviderFailure(r.chart.Name())
        return nil, err
    }
    return candles, nil
}

func (r *Resolver) staticPrice(sym string) (float64, bool) {
    if !r.cfg.StaticEnabled { return 0, false }
    p, ok := r.static[sym]
    return p, ok
}

// staticSnapshot shapes the static table as a deterministic list result.
func (r *Resolver) staticSnapshot() provider.ListSnapshot {
    snap := provider.ListSnapshot{
        Records: make([]provider.PriceRecord, 0, len(r.static)),
        Prices:  make(map[string]float64, len(r.static)),
    }
    for sym, price := range r.static {
        snap.Records = append(snap.Records, provider.PriceRecord{Symbol: sym, Price: price})
        snap.Prices[sym] = price
    }
    sort.Slice(snap.Records, func(i, j int) bool { return snap.Records[i].Symbol < snap.Records[j].Symbol })
    return snap
}

func universeLabel(u symbol.Universe) string {
    if u == symbol.UniverseForex { return "forex" }
    return "crypto"
}
