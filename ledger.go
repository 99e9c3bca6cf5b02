package stockledger

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Filter selects transactions. Zero fields select everything.
type Filter struct {
	Symbol string
	Since  time.Time // included
	Until  time.Time // included
}

// Match reports whether tx is selected by f.
func (f Filter) Match(tx Transaction) bool {
	if f.Symbol != "" && NormalizeSymbol(f.Symbol) != tx.Symbol {
		return false
	}
	if !f.Since.IsZero() && tx.Time.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && tx.Time.After(f.Until) {
		return false
	}
	return true
}

// LedgerStore is the durable, append-only record of transactions and asset
// metadata. Appended transactions are never mutated nor removed, and every
// read sees a consistent snapshot.
type LedgerStore interface {
	// Transactions returns the selected transactions ordered by time then id.
	Transactions(ctx context.Context, f Filter) ([]Transaction, error)
	// Append assigns an id to tx and records it. The asset is registered on
	// first reference.
	Append(ctx context.Context, tx Transaction) (Transaction, error)

	Assets(ctx context.Context) ([]Asset, error)
	Asset(ctx context.Context, symbol string) (Asset, error)
	RegisterAsset(ctx context.Context, a Asset) error
	DeactivateAsset(ctx context.Context, symbol string) error
	// DeleteAsset fails with ErrAssetReferenced while transactions reference it.
	DeleteAsset(ctx context.Context, symbol string) error
}

// Ledger is an in-memory LedgerStore. Appends are serialized.
type Ledger struct {
	mu           sync.RWMutex
	lastID       int64
	transactions []Transaction
	bySymbol     map[string][]int // index in transactions
	assets       map[string]Asset
}

var _ LedgerStore = (*Ledger)(nil)

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		bySymbol: make(map[string][]int),
		assets:   make(map[string]Asset),
	}
}

// Transactions implements LedgerStore.
func (l *Ledger) Transactions(ctx context.Context, f Filter) ([]Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Transaction
	if f.Symbol != "" {
		for _, i := range l.bySymbol[NormalizeSymbol(f.Symbol)] {
			if f.Match(l.transactions[i]) {
				out = append(out, l.transactions[i])
			}
		}
	} else {
		for _, tx := range l.transactions {
			if f.Match(tx) {
				out = append(out, tx)
			}
		}
	}
	return SortTransactions(out), nil
}

// Append implements LedgerStore.
func (l *Ledger) Append(ctx context.Context, tx Transaction) (Transaction, error) {
	if err := ctx.Err(); err != nil {
		return Transaction{}, err
	}
	tx = tx.Normalize()
	tx.ID = 0
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !tx.Type.IsCash() {
		asset, ok := l.assets[tx.Symbol]
		switch {
		case !ok:
			l.assets[tx.Symbol] = NewAsset(tx.Symbol, tx.Symbol, Stock, tx.Currency)
		case !asset.Active:
			return Transaction{}, fmt.Errorf("append %s %s: %w", tx.Type, tx.Symbol, ErrAssetInactive)
		case asset.Currency != tx.Currency:
			return Transaction{}, &InvalidTransactionError{Type: tx.Type,
				Reason: fmt.Sprintf("%s is quoted in %s, not %s", tx.Symbol, asset.Currency, tx.Currency)}
		}
	}
	l.lastID++
	tx.ID = l.lastID
	l.transactions = append(l.transactions, tx)
	if tx.Symbol != "" {
		l.bySymbol[tx.Symbol] = append(l.bySymbol[tx.Symbol], len(l.transactions)-1)
	}
	return tx, nil
}

// Assets implements LedgerStore.
func (l *Ledger) Assets(ctx context.Context) ([]Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Asset, 0, len(l.assets))
	for _, a := range l.assets {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b Asset) int { return cmp.Compare(a.Symbol, b.Symbol) })
	return out, nil
}

// Asset implements LedgerStore.
func (l *Ledger) Asset(ctx context.Context, symbol string) (Asset, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.assets[NormalizeSymbol(symbol)]
	if !ok {
		return Asset{}, fmt.Errorf("asset %q: %w", symbol, ErrAssetNotFound)
	}
	return a, nil
}

// RegisterAsset implements LedgerStore. It creates or updates the asset
// metadata, the currency of a referenced asset cannot change.
func (l *Ledger) RegisterAsset(ctx context.Context, a Asset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.Symbol = NormalizeSymbol(a.Symbol)
	if err := a.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if old, ok := l.assets[a.Symbol]; ok && old.Currency != a.Currency && len(l.bySymbol[a.Symbol]) > 0 {
		return fmt.Errorf("asset %s: currency cannot change from %s to %s: %w", a.Symbol, old.Currency, a.Currency, ErrAssetReferenced)
	}
	l.assets[a.Symbol] = a
	return nil
}

// DeactivateAsset implements LedgerStore.
func (l *Ledger) DeactivateAsset(ctx context.Context, symbol string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	symbol = NormalizeSymbol(symbol)
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.assets[symbol]
	if !ok {
		return fmt.Errorf("asset %q: %w", symbol, ErrAssetNotFound)
	}
	a.Active = false
	l.assets[symbol] = a
	return nil
}

// DeleteAsset implements LedgerStore.
func (l *Ledger) DeleteAsset(ctx context.Context, symbol string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	symbol = NormalizeSymbol(symbol)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.assets[symbol]; !ok {
		return fmt.Errorf("asset %q: %w", symbol, ErrAssetNotFound)
	}
	if n := len(l.bySymbol[symbol]); n > 0 {
		return fmt.Errorf("delete %s with %d transactions: %w", symbol, n, ErrAssetReferenced)
	}
	delete(l.assets, symbol)
	delete(l.bySymbol, symbol)
	return nil
}
