package ratelimit

import (
    "context"

    "golang.org/x/time/rate"

    "pricefeed/internal/provider"
)

// Limited wraps a SymbolProvider and gates upstream calls with a token
// bucket. A canceled context while waiting counts as an adapter failure for
// the caller, same as any transport error.
type Limited struct {
    P       provider.SymbolProvider
    Limiter *rate.Limiter
}

// New wraps p with a limiter of rps tokens per second and the given burst.
// rps <= 0 returns p unchanged.
func New(p provider.SymbolProvider, rps float64, burst int) provider.SymbolProvider {
    if rps <= 0 { return p }
    if burst <= 0 { burst = 1 }
    return &Limited{P: p, Limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *Limited) Name() string { return l.P.Name() }

func (l *Limited) Resolve(ctx context.Context, symbol string) (provider.PriceRecord, error) {
    if err := l.Limiter.Wait(ctx); err != nil {
        return provider.PriceRecord{}, err
    }
    return l.P.Resolve(ctx, symbol)
}
