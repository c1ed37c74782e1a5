package main

import (
    "context"
    "fmt"
    "log"
    "net/http"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/robfig/cron/v3"
    "go.uber.org/zap"

    "pricefeed/internal/config"
    "pricefeed/internal/httpx"
    "pricefeed/internal/logger"
    "pricefeed/internal/metrics"
    "pricefeed/internal/pricecache"
    "pricefeed/internal/provider/binance"
    "pricefeed/internal/provider/coinbase"
    "pricefeed/internal/provider/coingecko"
    "pricefeed/internal/provider/metalprice"
    "pricefeed/internal/provider/ratelimit"
    "pricefeed/internal/resolver"
    "pricefeed/internal/server"
    "pricefeed/internal/symbol"
)

func main() {
    if err := godotenv.Load(); err != nil {
        log.Println("no .env file, using environment variables")
    }
    cfg, err := config.Load()
    if err != nil { log.Fatalf("config: %v", err) }

    zlog, err := logger.New(cfg.Log)
    if err != nil { log.Fatalf("logger: %v", err) }
    defer func() { _ = zlog.Sync() }()

    httpClient := httpx.New(cfg.Server.ClientTimeout)
    table := symbol.DefaultTable()
    store := pricecache.NewStore(cfg.Cache.RefreshWindow, cfg.Cache.StaleTolerance)
    met := metrics.New()

    // CoinGecko serves both the bulk list and the primary per-symbol lookup.
    gecko := coingecko.NewAdapter(coingecko.AdapterConfig{
        ListCount: cfg.Provider.ListCount,
        IDs:       table.Crypto,
    }, coingecko.NewClient(cfg.Provider.CoinGecko.APIKey,
        coingecko.WithBaseURL(cfg.Provider.CoinGecko.BaseURL),
        coingecko.WithHTTPClient(httpClient.HTTP),
    ))
    bnc := binance.New(cfg.Provider.Binance.BaseURL, httpClient)
    cbs := coinbase.New(cfg.Provider.Coinbase.BaseURL, httpClient)

    res := resolver.New(resolver.Config{
        AttemptTimeout: cfg.Provider.AttemptTimeout,
        StaticEnabled:  cfg.Fallback.Static,
        StaticPrices:   cfg.Fallback.Prices,
    }, table, store, zlog)
    res.SetMetrics(met)
    res.SetListProvider(gecko)
    res.SetChartProvider(bnc)
    res.SetCryptoChain(
        ratelimit.New(gecko, cfg.Provider.MaxRPS, cfg.Provider.Burst),
        ratelimit.New(bnc, cfg.Provider.MaxRPS, cfg.Provider.Burst),
        ratelimit.New(cbs, cfg.Provider.MaxRPS, cfg.Provider.Burst),
    )

    // The forex/commodity universe needs an API key; without one the chain
    // stays empty and those symbols degrade like any other outage.
    if cfg.Provider.MetalPrice.APIKey != "" {
        fx := metalprice.New(metalprice.Config{
            BaseURL: cfg.Provider.MetalPrice.BaseURL,
            APIKey:  cfg.Provider.MetalPrice.APIKey,
            Codes:   table.Forex,
        }, httpClient)
        res.SetForexChain(ratelimit.New(fx, cfg.Provider.MaxRPS, cfg.Provider.Burst))
    } else {
        zlog.Warn("PROVIDER_METALPRICE_API_KEY not set; forex/commodity universe disabled")
    }

    // Background warmer keeps the bulk list (and with it most per-symbol
    // entries) inside the refresh window.
    if cfg.Cache.WarmInterval > 0 {
        c := cron.New()
        spec := fmt.Sprintf("@every %s", cfg.Cache.WarmInterval)
        if _, err := c.AddFunc(spec, func() {
            ctx, cancel := context.WithTimeout(context.Background(), cfg.Provider.AttemptTimeout+time.Second)
            defer cancel()
            if err := res.RefreshList(ctx); err != nil {
                zlog.Warn("list warm failed", zap.Error(err))
            }
        }); err != nil {
            zlog.Error("warmer schedule", zap.Error(err))
        } else {
            c.Start()
            defer c.Stop()
        }
    }

    srv := &http.Server{
        Addr:              ":" + cfg.Server.Port,
        Handler:           server.New(res, zlog).Router(cfg.Server.RequestTimeout),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      20 * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        zlog.Info("server listening", zap.String("port", cfg.Server.Port))
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            zlog.Fatal("server", zap.Error(err))
        }
    }()

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
}
