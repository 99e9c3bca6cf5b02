package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/etnz/stockledger"
	"github.com/etnz/stockledger/date"
)

// SavePrices inserts or replaces price bars. Their assets must be registered.
// Either all bars are saved or none.
func (s *Store) SavePrices(ctx context.Context, bars []stockledger.PriceBar) error {
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		known := make(map[string]bool)
		for _, b := range bars {
			b.Symbol = stockledger.NormalizeSymbol(b.Symbol)
			if err := b.Validate(); err != nil {
				return err
			}
			if !known[b.Symbol] {
				if _, err := getAsset(ctx, tx, b.Symbol); err != nil {
					return fmt.Errorf("prices of %s: %w", b.Symbol, err)
				}
				known[b.Symbol] = true
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO price_history (symbol, date, open, high, low, close, adjusted_close, volume)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (symbol, date) DO UPDATE SET
					open = excluded.open, high = excluded.high, low = excluded.low, close = excluded.close,
					adjusted_close = excluded.adjusted_close, volume = excluded.volume`,
				b.Symbol, b.Date.String(), b.Open, b.High, b.Low, b.Close, b.AdjustedClose, b.Volume)
			if err != nil {
				return fmt.Errorf("failed to save price of %s on %s: %w", b.Symbol, b.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Debug().Int("bars", len(bars)).Msg("saved prices")
	return nil
}

// Prices returns the bars of symbol within r, in date order.
func (s *Store) Prices(ctx context.Context, symbol string, r date.Range) ([]stockledger.PriceBar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, adjusted_close, volume
		FROM price_history WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date`,
		stockledger.NormalizeSymbol(symbol), r.From.String(), r.To.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()
	var out []stockledger.PriceBar
	for rows.Next() {
		b, err := scanBar(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBar(row scanner) (stockledger.PriceBar, error) {
	var b stockledger.PriceBar
	var day string
	err := row.Scan(&b.Symbol, &day, &b.Open, &b.High, &b.Low, &b.Close, &b.AdjustedClose, &b.Volume)
	if err != nil {
		return b, fmt.Errorf("failed to scan price: %w", err)
	}
	if b.Date, err = date.Parse(day); err != nil {
		return b, fmt.Errorf("price of %s: %w", b.Symbol, err)
	}
	return b, nil
}

// LoadMarketData reads the whole price history into memory, with the quote
// currency of every registered asset.
func (s *Store) LoadMarketData(ctx context.Context) (*stockledger.MarketData, error) {
	m := stockledger.NewMarketData()
	assets, err := s.Assets(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range assets {
		m.SetCurrency(a.Symbol, a.Currency)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, adjusted_close, volume
		FROM price_history ORDER BY symbol, date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		b, err := scanBar(rows)
		if err != nil {
			return nil, err
		}
		m.Add(b)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}
	s.log.Debug().Int("bars", n).Int("assets", len(assets)).Msg("loaded market data")
	return m, nil
}
