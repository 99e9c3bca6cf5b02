package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/etnz/stockledger"
)

const transactionColumns = `id, symbol, type, time, quantity, price, commission, tax, other_fees, currency, notes, broker`

// Transactions implements stockledger.LedgerStore.
func (s *Store) Transactions(ctx context.Context, f stockledger.Filter) ([]stockledger.Transaction, error) {
	var where []string
	var args []any
	if f.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, stockledger.NormalizeSymbol(f.Symbol))
	}
	if !f.Since.IsZero() {
		where = append(where, "time >= ?")
		args = append(args, formatTime(f.Since))
	}
	if !f.Until.IsZero() {
		where = append(where, "time <= ?")
		args = append(args, formatTime(f.Until))
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY time, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []stockledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(rows *sql.Rows) (stockledger.Transaction, error) {
	var tx stockledger.Transaction
	var symbol sql.NullString
	var typ, at string
	var quantity decimal.Decimal
	err := rows.Scan(&tx.ID, &symbol, &typ, &at, &quantity, &tx.Price,
		&tx.Commission, &tx.Tax, &tx.OtherFees, &tx.Currency, &tx.Notes, &tx.Broker)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}
	tx.Symbol = symbol.String
	tx.Type = stockledger.TransactionType(typ)
	tx.Quantity = stockledger.Q(quantity)
	if tx.Time, err = parseTime(at); err != nil {
		return tx, fmt.Errorf("transaction #%d: %w", tx.ID, err)
	}
	return tx, nil
}

// Append implements stockledger.LedgerStore. The asset check, its creation
// and the insertion happen in a single database transaction.
func (s *Store) Append(ctx context.Context, tx stockledger.Transaction) (stockledger.Transaction, error) {
	tx = tx.Normalize()
	tx.ID = 0
	if err := tx.Validate(); err != nil {
		return stockledger.Transaction{}, err
	}
	err := s.withTransaction(ctx, func(dbtx *sql.Tx) error {
		if !tx.Type.IsCash() {
			asset, err := getAsset(ctx, dbtx, tx.Symbol)
			switch {
			case errors.Is(err, stockledger.ErrAssetNotFound):
				if err := putAsset(ctx, dbtx, stockledger.NewAsset(tx.Symbol, tx.Symbol, stockledger.Stock, tx.Currency)); err != nil {
					return err
				}
			case err != nil:
				return err
			case !asset.Active:
				return fmt.Errorf("append %s %s: %w", tx.Type, tx.Symbol, stockledger.ErrAssetInactive)
			case asset.Currency != tx.Currency:
				return &stockledger.InvalidTransactionError{Type: tx.Type,
					Reason: fmt.Sprintf("%s is quoted in %s, not %s", tx.Symbol, asset.Currency, tx.Currency)}
			}
		}
		res, err := dbtx.ExecContext(ctx, `
			INSERT INTO transactions (symbol, type, time, quantity, price, commission, tax, other_fees, currency, notes, broker)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nullString(tx.Symbol), string(tx.Type), formatTime(tx.Time), tx.Quantity.Decimal(), tx.Price,
			tx.Commission, tx.Tax, tx.OtherFees, tx.Currency, tx.Notes, tx.Broker)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		tx.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return stockledger.Transaction{}, err
	}
	s.log.Debug().Int64("id", tx.ID).Str("type", string(tx.Type)).Str("symbol", tx.Symbol).Msg("appended transaction")
	return tx, nil
}

// queryer is implemented by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const assetColumns = `symbol, name, type, currency, exchange, sector, industry, active`

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (stockledger.Asset, error) {
	var a stockledger.Asset
	var typ string
	err := row.Scan(&a.Symbol, &a.Name, &typ, &a.Currency, &a.Exchange, &a.Sector, &a.Industry, &a.Active)
	a.Type = stockledger.AssetType(typ)
	return a, err
}

func getAsset(ctx context.Context, q queryer, symbol string) (stockledger.Asset, error) {
	row := q.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE symbol = ?`, symbol)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return a, fmt.Errorf("asset %q: %w", symbol, stockledger.ErrAssetNotFound)
	}
	if err != nil {
		return a, fmt.Errorf("failed to get asset %s: %w", symbol, err)
	}
	return a, nil
}

func putAsset(ctx context.Context, q queryer, a stockledger.Asset) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO assets (`+assetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			name = excluded.name, type = excluded.type, currency = excluded.currency,
			exchange = excluded.exchange, sector = excluded.sector, industry = excluded.industry,
			active = excluded.active`,
		a.Symbol, a.Name, string(a.Type), a.Currency, a.Exchange, a.Sector, a.Industry, a.Active)
	if err != nil {
		return fmt.Errorf("failed to save asset %s: %w", a.Symbol, err)
	}
	return nil
}

func countTransactions(ctx context.Context, q queryer, symbol string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE symbol = ?`, symbol).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions of %s: %w", symbol, err)
	}
	return n, nil
}

// Assets implements stockledger.LedgerStore.
func (s *Store) Assets(ctx context.Context) ([]stockledger.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()
	var out []stockledger.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Asset implements stockledger.LedgerStore.
func (s *Store) Asset(ctx context.Context, symbol string) (stockledger.Asset, error) {
	return getAsset(ctx, s.db, stockledger.NormalizeSymbol(symbol))
}

// RegisterAsset implements stockledger.LedgerStore.
func (s *Store) RegisterAsset(ctx context.Context, a stockledger.Asset) error {
	a.Symbol = stockledger.NormalizeSymbol(a.Symbol)
	if err := a.Validate(); err != nil {
		return err
	}
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		old, err := getAsset(ctx, tx, a.Symbol)
		if err == nil && old.Currency != a.Currency {
			n, err := countTransactions(ctx, tx, a.Symbol)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("asset %s: currency cannot change from %s to %s: %w", a.Symbol, old.Currency, a.Currency, stockledger.ErrAssetReferenced)
			}
		}
		return putAsset(ctx, tx, a)
	})
}

// DeactivateAsset implements stockledger.LedgerStore.
func (s *Store) DeactivateAsset(ctx context.Context, symbol string) error {
	symbol = stockledger.NormalizeSymbol(symbol)
	res, err := s.db.ExecContext(ctx, `UPDATE assets SET active = 0 WHERE symbol = ?`, symbol)
	if err != nil {
		return fmt.Errorf("failed to deactivate %s: %w", symbol, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("asset %q: %w", symbol, stockledger.ErrAssetNotFound)
	}
	return nil
}

// DeleteAsset implements stockledger.LedgerStore. Price history and signals
// are deleted by the schema, watchlist items here.
func (s *Store) DeleteAsset(ctx context.Context, symbol string) error {
	symbol = stockledger.NormalizeSymbol(symbol)
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := getAsset(ctx, tx, symbol); err != nil {
			return err
		}
		n, err := countTransactions(ctx, tx, symbol)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("delete %s with %d transactions: %w", symbol, n, stockledger.ErrAssetReferenced)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM watchlist_items WHERE symbol = ?`, symbol); err != nil {
			return fmt.Errorf("failed to delete watchlist items of %s: %w", symbol, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM assets WHERE symbol = ?`, symbol); err != nil {
			return fmt.Errorf("failed to delete asset %s: %w", symbol, err)
		}
		return nil
	})
}
