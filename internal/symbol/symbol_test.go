package symbol

import (
    "testing"

    "github.com/stretchr/testify/require"
)

func TestNormalize_CanonicalForms(t *testing.T) {
    n := NewNormalizer(DefaultTable())

    cases := map[string]string{
        "BTC":        "BTC",
        "btc":        "BTC",
        " btc ":      "BTC",
        "TON/USDT":   "TON",
        "ton-usdt":   "TON",
        "eth-usd":    "ETH",
        "ETHUSDT":    "ETH",
        "btc usdt":   "BTC", // embedded space removed before suffix strip
        "USDT":       "USDT",
        "usdt":       "USDT",
        "USD":        "USD",
        "xau":        "xau",
        "XAU":        "xau",
        "eurusd":     "eurusd",
        "EUR/USD":    "eurusd",
        "EURUSD":     "eurusd",
        "usdjpy":     "usdjpy",
        "":           "",
    }
    for raw, want := range cases {
        require.Equalf(t, want, n.Normalize(raw), "input %q", raw)
    }
}

func TestNormalize_Idempotent(t *testing.T) {
    n := NewNormalizer(DefaultTable())
    inputs := []string{"BTC", "btc", "TON/USDT", "eth-usd", "USDT", "xau", "EUR/USD", "doge", "unknown123"}
    for _, raw := range inputs {
        once := n.Normalize(raw)
        require.Equalf(t, once, n.Normalize(once), "input %q", raw)
    }
}

func TestUniverse_Dispatch(t *testing.T) {
    tbl := DefaultTable()
    require.Equal(t, UniverseCrypto, tbl.Universe("BTC"))
    require.Equal(t, UniverseForex, tbl.Universe("xau"))
    require.Equal(t, UniverseForex, tbl.Universe("eurusd"))
    require.Equal(t, UniverseUnknown, tbl.Universe("NOPE"))
    // Universes are disjoint: dispatch is by table membership, not format.
    require.Equal(t, UniverseUnknown, tbl.Universe("btc"))
}

func TestTable_IDLookups(t *testing.T) {
    tbl := DefaultTable()
    require.Equal(t, []string{"the-open-network", "toncoin"}, tbl.GeckoIDs("TON"))
    code, ok := tbl.ForexCode("xau")
    require.True(t, ok)
    require.Equal(t, "XAU", code)
    _, ok = tbl.ForexCode("BTC")
    require.False(t, ok)
}
