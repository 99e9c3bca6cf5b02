package stockledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/etnz/stockledger/date"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AccountingSystem is the caller facing API of the engine. It combines the
// ledger (the record of all transactions) with market data (prices and
// exchange rates) to answer holdings, valuation and performance queries,
// and to validate new transactions before they are recorded.
//
// Every query reads a consistent slice of the ledger and folds it in
// memory, so queries can run concurrently.
type AccountingSystem struct {
	Ledger            LedgerStore
	Market            *MarketData
	Rates             CurrencyConverter
	ReportingCurrency string
	Method            CostBasisMethod
	RiskFreeRate      decimal.Decimal // annual
	Log               zerolog.Logger

	recording sync.Mutex // serializes the check and append of Record
}

// NewAccountingSystem creates a new accounting system from a ledger and market data.
// Exchange rates are read from the market data currency pairs.
func NewAccountingSystem(ledger LedgerStore, market *MarketData, reportingCurrency string) (*AccountingSystem, error) {
	if err := ValidateCurrency(reportingCurrency); err != nil {
		return nil, fmt.Errorf("invalid reporting currency: %w", err)
	}
	if market == nil {
		market = NewMarketData()
	}
	return &AccountingSystem{
		Ledger:            ledger,
		Market:            market,
		Rates:             MarketRates{Market: market},
		ReportingCurrency: reportingCurrency,
		Method:            AverageCost,
		RiskFreeRate:      DefaultRiskFreeRate,
		Log:               zerolog.Nop(),
	}, nil
}

// until returns the transactions up to the end of day on, or all of them
// when on is zero.
func (as *AccountingSystem) until(ctx context.Context, on date.Date) ([]Transaction, error) {
	var f Filter
	if !on.IsZero() {
		f.Until = on.EndOfDay()
	}
	txs, err := as.Ledger.Transactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("could not read ledger: %w", err)
	}
	return txs, nil
}

// Holdings returns the holdings of every asset as of the end of day asOf,
// or as of now when asOf is zero.
func (as *AccountingSystem) Holdings(ctx context.Context, asOf date.Date) ([]HoldingsSummary, error) {
	txs, err := as.until(ctx, asOf)
	if err != nil {
		return nil, err
	}
	return FoldAll(txs, as.Method)
}

// Cash returns the cash accounts as of the end of day asOf.
func (as *AccountingSystem) Cash(ctx context.Context, asOf date.Date) ([]CashAccount, error) {
	txs, err := as.until(ctx, asOf)
	if err != nil {
		return nil, err
	}
	return CashBalances(txs)
}

// PortfolioValue values the portfolio at the end of day on, in
// reportingCurrency (the system's one when empty). When on is zero the
// current holdings are valued at the current prices.
func (as *AccountingSystem) PortfolioValue(ctx context.Context, reportingCurrency string, on date.Date) (Valuation, error) {
	if reportingCurrency == "" {
		reportingCurrency = as.ReportingCurrency
	}
	if err := ValidateCurrency(reportingCurrency); err != nil {
		return Valuation{}, fmt.Errorf("invalid reporting currency: %w", err)
	}
	txs, err := as.until(ctx, on)
	if err != nil {
		return Valuation{}, err
	}
	v, err := as.value(txs, reportingCurrency, on)
	if err != nil {
		return Valuation{}, err
	}
	for _, w := range v.Warnings {
		as.Log.Warn().Err(w).Str("date", v.Date.String()).Msg("partial valuation")
	}
	return v, nil
}

// value folds txs and values them on day on.
func (as *AccountingSystem) value(txs []Transaction, reportingCurrency string, on date.Date) (Valuation, error) {
	holdings, err := FoldAll(txs, as.Method)
	if err != nil {
		return Valuation{}, err
	}
	cash, err := CashBalances(txs)
	if err != nil {
		return Valuation{}, err
	}
	var prices PriceLookup = as.Market
	valueOn := on
	if on.IsZero() {
		valueOn = date.Today()
	} else {
		prices = as.Market.AsOf(on)
	}
	return Value(holdings, cash, prices, as.Rates, reportingCurrency, valueOn), nil
}

// Performance computes the statistics of the daily portfolio value over r.
// Days before the first transaction are not part of the series.
func (as *AccountingSystem) Performance(ctx context.Context, r date.Range) (PerformanceReport, error) {
	if err := r.Validate(); err != nil {
		return PerformanceReport{}, err
	}
	txs, err := as.until(ctx, r.To)
	if err != nil {
		return PerformanceReport{}, err
	}
	var series []ValuePoint
	partial := 0
	next := 0 // txs[:next] are on or before the current day
	for day := range r.Each() {
		end := day.EndOfDay()
		for next < len(txs) && !txs[next].Time.After(end) {
			next++
		}
		if next == 0 {
			continue
		}
		v, err := as.value(txs[:next], as.ReportingCurrency, day)
		if err != nil {
			return PerformanceReport{}, fmt.Errorf("value on %s: %w", day, err)
		}
		if len(v.Warnings) > 0 {
			partial++
		}
		series = append(series, ValuePoint{Date: day, Value: v.TotalValue})
	}
	rep := NewPerformanceReport(r, as.ReportingCurrency, series, as.RiskFreeRate)
	if partial > 0 {
		rep.Notes = append(rep.Notes, fmt.Sprintf("%d days valued with missing prices or rates", partial))
	}
	as.Log.Debug().Str("range", r.String()).Int("points", len(series)).Msg("performance computed")
	return rep, nil
}

// SuggestPositionSize returns the whole number of shares to buy, see PositionSize.
func (as *AccountingSystem) SuggestPositionSize(portfolioValue, risk, entry, stop decimal.Decimal) (int64, error) {
	return PositionSize(portfolioValue, risk, entry, stop)
}

// NewSnapshot computes the portfolio snapshot at the end of day on.
func (as *AccountingSystem) NewSnapshot(ctx context.Context, on date.Date) (PortfolioSnapshot, error) {
	txs, err := as.until(ctx, on)
	if err != nil {
		return PortfolioSnapshot{}, err
	}
	today, err := as.value(txs, as.ReportingCurrency, on)
	if err != nil {
		return PortfolioSnapshot{}, err
	}
	before := on.Add(-1)
	var previous Valuation
	if len(txs) > 0 && !txs[0].Time.After(before.EndOfDay()) {
		prevTxs := (Filter{Until: before.EndOfDay()}).apply(txs)
		if previous, err = as.value(prevTxs, as.ReportingCurrency, before); err != nil {
			return PortfolioSnapshot{}, err
		}
	}
	holdings, err := FoldAll(txs, as.Method)
	if err != nil {
		return PortfolioSnapshot{}, err
	}
	return NewPortfolioSnapshot(today, previous, holdings, as.Rates), nil
}

// Record validates tx against the ledger and appends it. A transaction that
// would oversell a holding or overdraw a cash account, at its own time or
// later, is rejected and nothing is recorded.
//
// Records through the same AccountingSystem are serialized. Writers sharing
// a ledger through distinct systems or processes must serialize themselves.
func (as *AccountingSystem) Record(ctx context.Context, tx Transaction) (Transaction, error) {
	tx = tx.Normalize()
	tx.ID = 0
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	if !tx.Type.IsCash() {
		if a, err := as.Ledger.Asset(ctx, tx.Symbol); err == nil && !a.Active {
			return Transaction{}, fmt.Errorf("record %s %s: %w", tx.Type, tx.Symbol, ErrAssetInactive)
		}
	}
	as.recording.Lock()
	defer as.recording.Unlock()
	txs, err := as.Ledger.Transactions(ctx, Filter{})
	if err != nil {
		return Transaction{}, fmt.Errorf("could not read ledger: %w", err)
	}
	candidate := append(txs, pending(tx))
	if !tx.Type.IsCash() {
		if _, err := Fold(tx.Symbol, candidate, as.Method); err != nil {
			return Transaction{}, err
		}
	}
	if _, err := CashBalances(candidate); err != nil {
		return Transaction{}, err
	}
	recorded, err := as.Ledger.Append(ctx, tx)
	if err != nil {
		return Transaction{}, err
	}
	as.Log.Info().
		Int64("id", recorded.ID).
		Str("type", recorded.Type.String()).
		Str("symbol", recorded.Symbol).
		Str("quantity", recorded.Quantity.String()).
		Msg("transaction recorded")
	return recorded, nil
}

// pending gives tx the largest id so that it sorts after any transaction
// already recorded at the same time.
func pending(tx Transaction) Transaction {
	tx.ID = 1<<63 - 1
	return tx
}

// apply returns the transactions matching f, txs order is kept.
func (f Filter) apply(txs []Transaction) []Transaction {
	var out []Transaction
	for _, tx := range txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// Since returns the transactions recorded on or after t.
func (as *AccountingSystem) Since(ctx context.Context, t time.Time) ([]Transaction, error) {
	return as.Ledger.Transactions(ctx, Filter{Since: t})
}
