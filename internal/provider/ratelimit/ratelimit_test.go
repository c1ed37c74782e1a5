package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pricefeed/internal/provider"
	"pricefeed/internal/provider/ratelimit"
)

type stubProvider struct{ calls int }

func (s *stubProvider) Name() string { return "stub" }
func (s *stubProvider) Resolve(ctx context.Context, symbol string) (provider.PriceRecord, error) {
	s.calls++
	return provider.PriceRecord{Symbol: symbol, Price: 1, ObservedAt: time.Now()}, nil
}

func TestNew_ZeroRPSIsPassthrough(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{}
	require.Same(t, provider.SymbolProvider(stub), ratelimit.New(stub, 0, 1))
}

func TestResolve_DelaysBeyondBurst(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{}
	limited := ratelimit.New(stub, 10, 1)

	// First call spends the burst token, the second waits for a refill.
	start := time.Now()
	_, err := limited.Resolve(context.Background(), "BTC")
	require.NoError(t, err)
	_, err = limited.Resolve(context.Background(), "BTC")
	require.NoError(t, err)

	require.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	require.Equal(t, 2, stub.calls)
}

func TestResolve_CanceledWhileWaiting(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{}
	limited := ratelimit.New(stub, 0.1, 1)

	_, err := limited.Resolve(context.Background(), "BTC")
	require.NoError(t, err)

	// Ten seconds to the next token; a short deadline must fail fast and
	// never reach the wrapped provider.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.Resolve(ctx, "BTC")
	require.Error(t, err)
	require.Equal(t, 1, stub.calls)
}
