package symbol

import "strings"

// Universe classifies a canonical symbol by the id table it belongs to.
// The two universes are disjoint and use disjoint adapter chains.
type Universe int

const (
    UniverseUnknown Universe = iota
    UniverseCrypto
    UniverseForex
)

// Table holds the known-symbol id tables.
// Crypto maps a ticker to its CoinGecko id candidates in priority order
// (some assets have more than one plausible upstream id).
// Forex maps an id-style key to the quote-provider currency code.
type Table struct {
    Crypto map[string][]string
    Forex  map[string]string
}

func DefaultTable() Table {
    return Table{
        Crypto: map[string][]string{
            "BTC":   {"bitcoin"},
            "ETH":   {"ethereum"},
            "USDT":  {"tether"},
            "USDC":  {"usd-coin"},
            "BNB":   {"binancecoin"},
            "SOL":   {"solana"},
            "XRP":   {"ripple"},
            "ADA":   {"cardano"},
            "DOGE":  {"dogecoin"},
            "TON":   {"the-open-network", "toncoin"},
            "TRX":   {"tron"},
            "DOT":   {"polkadot"},
            "POL":   {"polygon-ecosystem-token", "matic-network"},
            "LINK":  {"chainlink"},
            "LTC":   {"litecoin"},
            "AVAX":  {"avalanche-2"},
            "ATOM":  {"cosmos"},
            "XLM":   {"stellar"},
            "NEAR":  {"near"},
            "SHIB":  {"shiba-inu"},
        },
        Forex: map[string]string{
            "xau":    "XAU",
            "xag":    "XAG",
            "xpt":    "XPT",
            "xpd":    "XPD",
            "wti":    "WTIOIL",
            "brent":  "BRENTOIL",
            "eurusd": "EUR",
            "gbpusd": "GBP",
            "usdjpy": "JPY",
            "usdchf": "CHF",
            "audusd": "AUD",
        },
    }
}

func (t Table) Universe(canonical string) Universe {
    if _, ok := t.Forex[canonical]; ok {
        return UniverseForex
    }
    if _, ok := t.Crypto[canonical]; ok {
        return UniverseCrypto
    }
    return UniverseUnknown
}

// GeckoIDs returns the upstream id candidates for a crypto ticker.
func (t Table) GeckoIDs(canonical string) []string { return t.Crypto[canonical] }

// ForexCode returns the quote-provider code for a forex/commodity id.
func (t Table) ForexCode(canonical string) (string, bool) {
    c, ok := t.Forex[canonical]
    return c, ok
}

// Normalizer maps arbitrary client-supplied identifiers to canonical symbols.
// Canonical form is upper-case ticker for the crypto universe and lower-case
// id for the forex/commodity universe. Pure and idempotent; unknown symbols
// normalize syntactically and are rejected later by the resolver.
type Normalizer struct {
    fx map[string]struct{}
}

func NewNormalizer(t Table) *Normalizer {
    fx := make(map[string]struct{}, len(t.Forex))
    for k := range t.Forex { fx[k] = struct{}{} }
    return &Normalizer{fx: fx}
}

func (n *Normalizer) Normalize(raw string) string {
    s := strings.Join(strings.Fields(raw), "")
    if s == "" { return "" }

    // Forex/commodity ids are matched before pair-splitting so that
    // "eurusd" or "EUR/USD" is not reduced to "eur".
    compact := strings.ToLower(strings.NewReplacer("/", "", "-", "").Replace(s))
    if _, ok := n.fx[compact]; ok { return compact }

    // Composite pair notation: keep the base asset only.
    if i := strings.IndexAny(s, "/-"); i > 0 {
        s = s[:i]
    }
    s = strings.ToUpper(s)

    // Strip a trailing quote currency, but never down to an empty string
    // ("USDT" itself must survive).
    for _, quote := range []string{"USDT", "USD"} {
        if rest := strings.TrimSuffix(s, quote); rest != "" && rest != s {
            s = rest
            break
        }
    }
    return s
}
