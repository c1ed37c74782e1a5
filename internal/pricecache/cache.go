package pricecache

import (
    "sync"
    "time"

    "pricefeed/internal/provider"
)

// State is the freshness of a cache entry, driven purely by its age.
// A successful write moves the key back to StateFresh; time only ever moves
// it forward through StateStaleOK to StateExpired.
type State int

const (
    StateEmpty State = iota
    StateFresh         // age < refresh window: serve as-is, no upstream call
    StateStaleOK       // refresh first, but the entry is still an acceptable fallback
    StateExpired       // a live attempt is mandatory; the entry is no longer served
)

func (s State) String() string {
    switch s {
    case StateFresh:
        return "fresh"
    case StateStaleOK:
        return "stale_ok"
    case StateExpired:
        return "expired"
    }
    return "empty"
}

// StateOf classifies an entry age against the two windows.
func StateOf(age, refreshWindow, staleTolerance time.Duration) State {
    if age < refreshWindow { return StateFresh }
    if age <= staleTolerance { return StateStaleOK }
    return StateExpired
}

// Entry is one cached per-symbol resolution. Replaced whole on every write,
// never partially updated.
type Entry struct {
    Record    provider.PriceRecord
    FetchedAt time.Time
}

// ListEntry is the cached bulk market snapshot.
type ListEntry struct {
    Snapshot  provider.ListSnapshot
    FetchedAt time.Time
}

// Store owns the two process-wide caches: the bulk list snapshot and the
// per-symbol entries. The two are independent except that a list write seeds
// every symbol it covers. Entries are never deleted, only superseded.
type Store struct {
    refreshWindow  time.Duration
    staleTolerance time.Duration

    mu      sync.RWMutex
    symbols map[string]Entry
    list    *ListEntry

    now func() time.Time
}

func NewStore(refreshWindow, staleTolerance time.Duration) *Store {
    return &Store{
        refreshWindow:  refreshWindow,
        staleTolerance: staleTolerance,
        symbols:        make(map[string]Entry),
        now:            time.Now,
    }
}

// Get returns the entry for a symbol and its current freshness state.
func (s *Store) Get(symbol string) (Entry, State) {
    s.mu.RLock()
    e, ok := s.symbols[symbol]
    s.mu.RUnlock()
    if !ok { return Entry{}, StateEmpty }
    return e, StateOf(s.now().Sub(e.FetchedAt), s.refreshWindow, s.staleTolerance)
}

// Put stores a successful resolution. Invalid records are dropped so a bad
// upstream value can never shadow an older good one.
func (s *Store) Put(rec provider.PriceRecord) {
    if !rec.Valid() { return }
    s.mu.Lock()
    s.symbols[rec.Symbol] = Entry{Record: rec, FetchedAt: s.now()}
    s.mu.Unlock()
}

// GetList returns the bulk snapshot entry and its freshness state.
func (s *Store) GetList() (ListEntry, State) {
    s.mu.RLock()
    e := s.list
    s.mu.RUnlock()
    if e == nil { return ListEntry{}, StateEmpty }
    return *e, StateOf(s.now().Sub(e.FetchedAt), s.refreshWindow, s.staleTolerance)
}

// PutList stores a bulk snapshot and seeds the per-symbol cache with every
// valid record in it. A symbol-only refresh never touches the list cache;
// this is the only cross-tier write.
func (s *Store) PutList(snap provider.ListSnapshot) {
    now := s.now()
    s.mu.Lock()
    s.list = &ListEntry{Snapshot: snap, FetchedAt: now}
    for _, rec := range snap.Records {
        if rec.Valid() {
            s.symbols[rec.Symbol] = Entry{Record: rec, FetchedAt: now}
        }
    }
    s.mu.Unlock()
}
