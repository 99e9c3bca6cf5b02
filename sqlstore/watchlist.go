package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/etnz/stockledger"
)

func watchlistID(ctx context.Context, q queryer, name string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM watchlists WHERE name = ?`, strings.TrimSpace(name)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("watchlist %q: %w", name, stockledger.ErrWatchlistNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get watchlist %q: %w", name, err)
	}
	return id, nil
}

// Watchlists implements stockledger.WatchlistStore.
func (s *Store) Watchlists(ctx context.Context) ([]stockledger.Watchlist, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM watchlists ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlists: %w", err)
	}
	var out []stockledger.Watchlist
	for rows.Next() {
		var w stockledger.Watchlist
		if err := rows.Scan(&w.ID, &w.Name, &w.Description); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan watchlist: %w", err)
		}
		out = append(out, w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// items are read once the list rows are closed, an in-memory database
	// has a single connection.
	for i := range out {
		if out[i].Items, err = s.watchlistItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) watchlistItems(ctx context.Context, id int64) ([]stockledger.WatchlistItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, target_price, notes, added FROM watchlist_items
		WHERE watchlist_id = ? ORDER BY symbol`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist items: %w", err)
	}
	defer rows.Close()
	var items []stockledger.WatchlistItem
	for rows.Next() {
		var it stockledger.WatchlistItem
		var added string
		if err := rows.Scan(&it.Symbol, &it.TargetPrice, &it.Notes, &added); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
		}
		if it.Added, err = parseTime(added); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Watchlist implements stockledger.WatchlistStore.
func (s *Store) Watchlist(ctx context.Context, name string) (stockledger.Watchlist, error) {
	w := stockledger.Watchlist{Name: strings.TrimSpace(name)}
	err := s.db.QueryRowContext(ctx, `SELECT id, description FROM watchlists WHERE name = ?`, w.Name).Scan(&w.ID, &w.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return w, fmt.Errorf("watchlist %q: %w", name, stockledger.ErrWatchlistNotFound)
	}
	if err != nil {
		return w, fmt.Errorf("failed to get watchlist %q: %w", name, err)
	}
	w.Items, err = s.watchlistItems(ctx, w.ID)
	return w, err
}

// CreateWatchlist implements stockledger.WatchlistStore.
func (s *Store) CreateWatchlist(ctx context.Context, name, description string) (stockledger.Watchlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return stockledger.Watchlist{}, fmt.Errorf("watchlist name is missing")
	}
	var w stockledger.Watchlist
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := watchlistID(ctx, tx, name); err == nil {
			return fmt.Errorf("watchlist %q: %w", name, stockledger.ErrDuplicateWatchlist)
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO watchlists (name, description) VALUES (?, ?)`, name, description)
		if err != nil {
			return fmt.Errorf("failed to create watchlist %q: %w", name, err)
		}
		id, err := res.LastInsertId()
		w = stockledger.Watchlist{ID: id, Name: name, Description: description}
		return err
	})
	return w, err
}

// AddToWatchlist implements stockledger.WatchlistStore.
func (s *Store) AddToWatchlist(ctx context.Context, name string, item stockledger.WatchlistItem) error {
	item.Symbol = stockledger.NormalizeSymbol(item.Symbol)
	if item.Symbol == "" {
		return fmt.Errorf("watchlist item without symbol")
	}
	if item.Added.IsZero() {
		item.Added = time.Now().UTC()
	}
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		id, err := watchlistID(ctx, tx, name)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO watchlist_items (watchlist_id, symbol, target_price, notes, added) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (watchlist_id, symbol) DO UPDATE SET
				target_price = excluded.target_price, notes = excluded.notes, added = excluded.added`,
			id, item.Symbol, item.TargetPrice, item.Notes, formatTime(item.Added))
		if err != nil {
			return fmt.Errorf("failed to add %s to watchlist %q: %w", item.Symbol, name, err)
		}
		return nil
	})
}

// RemoveFromWatchlist implements stockledger.WatchlistStore.
func (s *Store) RemoveFromWatchlist(ctx context.Context, name, symbol string) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		id, err := watchlistID(ctx, tx, name)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM watchlist_items WHERE watchlist_id = ? AND symbol = ?`,
			id, stockledger.NormalizeSymbol(symbol))
		return err
	})
}

// DeleteWatchlist implements stockledger.WatchlistStore. Items are deleted by
// the schema.
func (s *Store) DeleteWatchlist(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM watchlists WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("failed to delete watchlist %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("watchlist %q: %w", name, stockledger.ErrWatchlistNotFound)
	}
	return nil
}
