package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/etnz/stockledger"
	"github.com/etnz/stockledger/date"
	"github.com/etnz/stockledger/signals"
)

// SaveSignal stores a technical signal, replacing the one of the same symbol
// and day.
func (s *Store) SaveSignal(ctx context.Context, sig signals.TechnicalSignal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO technical_signals (symbol, date, rsi14, macd, macd_signal, macd_histogram, sma50, sma200, signal, strength)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, date) DO UPDATE SET
			rsi14 = excluded.rsi14, macd = excluded.macd, macd_signal = excluded.macd_signal,
			macd_histogram = excluded.macd_histogram, sma50 = excluded.sma50, sma200 = excluded.sma200,
			signal = excluded.signal, strength = excluded.strength`,
		stockledger.NormalizeSymbol(sig.Symbol), sig.Date.String(), sig.RSI14, sig.MACD, sig.MACDSignal,
		sig.MACDHistogram, sig.SMA50, sig.SMA200, string(sig.Signal), sig.Strength)
	if err != nil {
		return fmt.Errorf("failed to save signal of %s: %w", sig.Symbol, err)
	}
	return nil
}

// LatestSignal returns the most recent signal of symbol.
func (s *Store) LatestSignal(ctx context.Context, symbol string) (signals.TechnicalSignal, error) {
	sig := signals.TechnicalSignal{Symbol: stockledger.NormalizeSymbol(symbol)}
	var day, signal string
	err := s.db.QueryRowContext(ctx, `
		SELECT date, rsi14, macd, macd_signal, macd_histogram, sma50, sma200, signal, strength
		FROM technical_signals WHERE symbol = ? ORDER BY date DESC LIMIT 1`, sig.Symbol).
		Scan(&day, &sig.RSI14, &sig.MACD, &sig.MACDSignal, &sig.MACDHistogram, &sig.SMA50, &sig.SMA200, &signal, &sig.Strength)
	if errors.Is(err, sql.ErrNoRows) {
		return sig, fmt.Errorf("signal of %s: %w", sig.Symbol, ErrNotFound)
	}
	if err != nil {
		return sig, fmt.Errorf("failed to get signal of %s: %w", sig.Symbol, err)
	}
	if sig.Date, err = date.Parse(day); err != nil {
		return sig, err
	}
	sig.Signal, err = signals.ParseSignal(signal)
	return sig, err
}
