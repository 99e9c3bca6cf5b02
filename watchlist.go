package stockledger

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// WatchlistItem is an asset followed in a watchlist, with an optional
// target price in the asset currency.
type WatchlistItem struct {
	Symbol      string
	TargetPrice decimal.NullDecimal
	Notes       string
	Added       time.Time
}

// Watchlist is a named list of assets. Its items belong to it and are
// deleted with it.
type Watchlist struct {
	ID          int64
	Name        string // unique
	Description string
	Items       []WatchlistItem // sorted by symbol
}

// WatchlistStore persists watchlists.
type WatchlistStore interface {
	Watchlists(ctx context.Context) ([]Watchlist, error)
	Watchlist(ctx context.Context, name string) (Watchlist, error)
	CreateWatchlist(ctx context.Context, name, description string) (Watchlist, error)
	// AddToWatchlist inserts or replaces the item of the same symbol.
	AddToWatchlist(ctx context.Context, name string, item WatchlistItem) error
	RemoveFromWatchlist(ctx context.Context, name, symbol string) error
	// DeleteWatchlist deletes the watchlist and all its items.
	DeleteWatchlist(ctx context.Context, name string) error
}

// TargetHit is a watchlist item whose current price reached its target.
type TargetHit struct {
	Item  WatchlistItem
	Price Money
}

// TargetsHit returns the items priced at or below their target price.
// Items without a target or a price are ignored.
func (w Watchlist) TargetsHit(prices PriceLookup) []TargetHit {
	var hits []TargetHit
	for _, it := range w.Items {
		if !it.TargetPrice.Valid {
			continue
		}
		price, ok := lookupPrice(prices, it.Symbol)
		if !ok {
			continue
		}
		if !price.Decimal().GreaterThan(it.TargetPrice.Decimal) {
			hits = append(hits, TargetHit{Item: it, Price: price})
		}
	}
	return hits
}

func validateWatchlistName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("watchlist name is missing")
	}
	return name, nil
}

// Watchlists is an in-memory WatchlistStore.
type Watchlists struct {
	mu     sync.Mutex
	lastID int64
	lists  map[string]*Watchlist
}

var _ WatchlistStore = (*Watchlists)(nil)

// NewWatchlists returns an empty in-memory store.
func NewWatchlists() *Watchlists {
	return &Watchlists{lists: make(map[string]*Watchlist)}
}

func (s *Watchlists) Watchlists(ctx context.Context) ([]Watchlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Watchlist, 0, len(s.lists))
	for _, w := range s.lists {
		out = append(out, w.clone())
	}
	slices.SortFunc(out, func(a, b Watchlist) int { return cmp.Compare(a.Name, b.Name) })
	return out, ctx.Err()
}

func (s *Watchlists) Watchlist(ctx context.Context, name string) (Watchlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.lists[strings.TrimSpace(name)]
	if !ok {
		return Watchlist{}, fmt.Errorf("watchlist %q: %w", name, ErrWatchlistNotFound)
	}
	return w.clone(), ctx.Err()
}

func (s *Watchlists) CreateWatchlist(ctx context.Context, name, description string) (Watchlist, error) {
	name, err := validateWatchlistName(name)
	if err != nil {
		return Watchlist{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[name]; ok {
		return Watchlist{}, fmt.Errorf("watchlist %q: %w", name, ErrDuplicateWatchlist)
	}
	s.lastID++
	w := &Watchlist{ID: s.lastID, Name: name, Description: description}
	s.lists[name] = w
	return w.clone(), ctx.Err()
}

func (s *Watchlists) AddToWatchlist(ctx context.Context, name string, item WatchlistItem) error {
	item.Symbol = NormalizeSymbol(item.Symbol)
	if item.Symbol == "" {
		return fmt.Errorf("watchlist item without symbol")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.lists[strings.TrimSpace(name)]
	if !ok {
		return fmt.Errorf("watchlist %q: %w", name, ErrWatchlistNotFound)
	}
	w.put(item)
	return ctx.Err()
}

func (s *Watchlists) RemoveFromWatchlist(ctx context.Context, name, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.lists[strings.TrimSpace(name)]
	if !ok {
		return fmt.Errorf("watchlist %q: %w", name, ErrWatchlistNotFound)
	}
	symbol = NormalizeSymbol(symbol)
	w.Items = slices.DeleteFunc(w.Items, func(it WatchlistItem) bool { return it.Symbol == symbol })
	return ctx.Err()
}

func (s *Watchlists) DeleteWatchlist(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = strings.TrimSpace(name)
	if _, ok := s.lists[name]; !ok {
		return fmt.Errorf("watchlist %q: %w", name, ErrWatchlistNotFound)
	}
	delete(s.lists, name)
	return ctx.Err()
}

// put inserts or replaces item, keeping items sorted by symbol.
func (w *Watchlist) put(item WatchlistItem) {
	if item.Added.IsZero() {
		item.Added = time.Now().UTC()
	}
	i, found := slices.BinarySearchFunc(w.Items, item.Symbol, func(it WatchlistItem, s string) int { return cmp.Compare(it.Symbol, s) })
	if found {
		w.Items[i] = item
		return
	}
	w.Items = slices.Insert(w.Items, i, item)
}

func (w *Watchlist) clone() Watchlist {
	c := *w
	c.Items = slices.Clone(w.Items)
	return c
}
