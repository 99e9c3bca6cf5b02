package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/etnz/stockledger"
	"github.com/etnz/stockledger/date"
)

// ErrNotFound is returned when a cached snapshot or signal does not exist.
var ErrNotFound = errors.New("not found")

// SaveSnapshot caches s, replacing the snapshot of the same day.
func (s *Store) SaveSnapshot(ctx context.Context, snap stockledger.PortfolioSnapshot) error {
	if snap.Date.IsZero() {
		return fmt.Errorf("snapshot without date")
	}
	day := snap.Date.String()
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (date, reporting_currency, total_value, cash_value, invested, realized_pnl,
				unrealized_pnl, daily_change, daily_change_percent, positions, warnings)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (date) DO UPDATE SET
				reporting_currency = excluded.reporting_currency, total_value = excluded.total_value,
				cash_value = excluded.cash_value, invested = excluded.invested,
				realized_pnl = excluded.realized_pnl, unrealized_pnl = excluded.unrealized_pnl,
				daily_change = excluded.daily_change, daily_change_percent = excluded.daily_change_percent,
				positions = excluded.positions, warnings = excluded.warnings`,
			day, snap.ReportingCurrency, snap.TotalValue.Decimal(), snap.CashValue.Decimal(), snap.Invested.Decimal(),
			snap.RealizedPnL.Decimal(), snap.UnrealizedPnL.Decimal(), snap.DailyChange.Decimal(),
			snap.DailyChangePercent, snap.Positions, strings.Join(snap.Warnings, "\n"))
		if err != nil {
			return fmt.Errorf("failed to save snapshot of %s: %w", day, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_cash WHERE date = ?`, day); err != nil {
			return fmt.Errorf("failed to replace snapshot cash of %s: %w", day, err)
		}
		for _, acc := range snap.Cash {
			_, err := tx.ExecContext(ctx, `INSERT INTO snapshot_cash (date, currency, balance) VALUES (?, ?, ?)`,
				day, acc.Currency, acc.Balance.Decimal())
			if err != nil {
				return fmt.Errorf("failed to save snapshot cash of %s: %w", day, err)
			}
		}
		return nil
	})
}

// Snapshot returns the cached snapshot of a day.
func (s *Store) Snapshot(ctx context.Context, on date.Date) (stockledger.PortfolioSnapshot, error) {
	snap := stockledger.PortfolioSnapshot{Date: on}
	var total, cash, invested, realized, unrealized, change decimal.Decimal
	var warnings string
	err := s.db.QueryRowContext(ctx, `
		SELECT reporting_currency, total_value, cash_value, invested, realized_pnl, unrealized_pnl,
			daily_change, daily_change_percent, positions, warnings
		FROM snapshots WHERE date = ?`, on.String()).
		Scan(&snap.ReportingCurrency, &total, &cash, &invested, &realized, &unrealized,
			&change, &snap.DailyChangePercent, &snap.Positions, &warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, fmt.Errorf("snapshot of %s: %w", on, ErrNotFound)
	}
	if err != nil {
		return snap, fmt.Errorf("failed to get snapshot of %s: %w", on, err)
	}
	cur := snap.ReportingCurrency
	snap.TotalValue = stockledger.M(total, cur)
	snap.CashValue = stockledger.M(cash, cur)
	snap.Invested = stockledger.M(invested, cur)
	snap.RealizedPnL = stockledger.M(realized, cur)
	snap.UnrealizedPnL = stockledger.M(unrealized, cur)
	snap.DailyChange = stockledger.M(change, cur)
	if warnings != "" {
		snap.Warnings = strings.Split(warnings, "\n")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT currency, balance FROM snapshot_cash WHERE date = ? ORDER BY currency`, on.String())
	if err != nil {
		return snap, fmt.Errorf("failed to query snapshot cash: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var acc stockledger.CashAccount
		var balance decimal.Decimal
		if err := rows.Scan(&acc.Currency, &balance); err != nil {
			return snap, fmt.Errorf("failed to scan snapshot cash: %w", err)
		}
		acc.Balance = stockledger.M(balance, cur)
		snap.Cash = append(snap.Cash, acc)
	}
	return snap, rows.Err()
}
