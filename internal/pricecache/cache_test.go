package pricecache

import (
    "math"
    "testing"
    "time"

    "pricefeed/internal/provider"
)

func testStore(refresh, tolerance time.Duration) (*Store, *time.Time) {
    s := NewStore(refresh, tolerance)
    now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
    s.now = func() time.Time { return now }
    return s, &now
}

func rec(sym string, price float64) provider.PriceRecord {
    return provider.PriceRecord{Symbol: sym, Price: price, ObservedAt: time.Now().UTC()}
}

func TestStateOf_MonotoneOverAge(t *testing.T) {
    refresh := 10 * time.Second
    tolerance := 5 * time.Minute

    prev := StateFresh
    for age := time.Duration(0); age <= tolerance+time.Minute; age += time.Second {
        st := StateOf(age, refresh, tolerance)
        if st < prev {
            t.Fatalf("state moved backward at age %s: %v -> %v", age, prev, st)
        }
        prev = st
    }
    if StateOf(0, refresh, tolerance) != StateFresh {
        t.Fatalf("age 0 should be fresh")
    }
    if StateOf(30*time.Second, refresh, tolerance) != StateStaleOK {
        t.Fatalf("30s should be stale_ok")
    }
    if StateOf(10*time.Minute, refresh, tolerance) != StateExpired {
        t.Fatalf("10m should be expired")
    }
}

func TestStore_EntryAges(t *testing.T) {
    s, now := testStore(10*time.Second, 5*time.Minute)

    if _, st := s.Get("BTC"); st != StateEmpty {
        t.Fatalf("want empty, got %v", st)
    }

    s.Put(rec("BTC", 107719.98))
    e, st := s.Get("BTC")
    if st != StateFresh || e.Record.Price != 107719.98 {
        t.Fatalf("want fresh 107719.98, got %v %+v", st, e)
    }

    *now = now.Add(30 * time.Second)
    if _, st := s.Get("BTC"); st != StateStaleOK {
        t.Fatalf("want stale_ok after 30s, got %v", st)
    }

    *now = now.Add(10 * time.Minute)
    if _, st := s.Get("BTC"); st != StateExpired {
        t.Fatalf("want expired after 10m30s, got %v", st)
    }

    // A new write re-enters fresh.
    s.Put(rec("BTC", 108000))
    if e, st := s.Get("BTC"); st != StateFresh || e.Record.Price != 108000 {
        t.Fatalf("want fresh after rewrite, got %v %+v", st, e)
    }
}

func TestStore_RejectsInvalidRecords(t *testing.T) {
    s, _ := testStore(10*time.Second, 5*time.Minute)
    s.Put(rec("BTC", 107719.98))

    for _, bad := range []float64{0, -1, math.Inf(1), math.NaN()} {
        s.Put(rec("BTC", bad))
    }
    e, st := s.Get("BTC")
    if st != StateFresh || e.Record.Price != 107719.98 {
        t.Fatalf("invalid write must not shadow the good entry: %v %+v", st, e)
    }
}

func TestStore_ListSeedsSymbols(t *testing.T) {
    s, now := testStore(10*time.Second, 5*time.Minute)

    snap := provider.ListSnapshot{
        Records: []provider.PriceRecord{rec("BTC", 107719.98), rec("ETH", 4555.07), rec("BAD", 0)},
        Prices:  map[string]float64{"BTC": 107719.98, "ETH": 4555.07},
    }
    s.PutList(snap)

    if le, st := s.GetList(); st != StateFresh || len(le.Snapshot.Records) != 3 {
        t.Fatalf("list entry: %v %+v", st, le)
    }
    if e, st := s.Get("ETH"); st != StateFresh || e.Record.Price != 4555.07 {
        t.Fatalf("ETH not seeded: %v %+v", st, e)
    }
    if _, st := s.Get("BAD"); st != StateEmpty {
        t.Fatalf("invalid list record must not seed the symbol cache")
    }

    // A symbol-only refresh never touches the list entry.
    *now = now.Add(30 * time.Second)
    s.Put(rec("ETH", 4600))
    if _, st := s.GetList(); st != StateStaleOK {
        t.Fatalf("list freshness must be independent of symbol writes, got %v", st)
    }
    if _, st := s.Get("ETH"); st != StateFresh {
        t.Fatalf("ETH should be fresh after rewrite")
    }
}
