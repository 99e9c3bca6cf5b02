package stockledger

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// Disposal is the realized outcome of a single SELL.
type Disposal struct {
	TxID        int64
	Time        time.Time
	Quantity    Quantity
	Proceeds    Money // units times price, before fees
	CostBasis   Money // cost of the units sold
	Fees        Money
	RealizedPnL Money // Proceeds - CostBasis - Fees
}

// HoldingsSummary is the immutable result of folding the ledger of one asset.
type HoldingsSummary struct {
	Symbol      string
	Currency    string
	Method      CostBasisMethod
	Quantity    Quantity
	AverageCost Money // TotalCost / Quantity, zero when nothing is held
	TotalCost   Money // cost basis of the units held
	RealizedPnL Money // sum of Disposals' RealizedPnL
	Dividends   Money // net of fees
	Fees        Money // every fee paid on this asset
	Lots        []Lot // open lots, FIFO only
	Disposals   []Disposal
}

// IsOpen reports whether units are still held.
func (h HoldingsSummary) IsOpen() bool { return h.Quantity.IsPositive() }

// SortTransactions returns a copy of txs ordered by time, then id, then
// input position. The ordering is the one used by every fold.
func SortTransactions(txs []Transaction) []Transaction {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b Transaction) int {
		if c := a.Time.Compare(b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return sorted
}

// holdingState is the running state of a fold. It is owned by a single call.
type holdingState struct {
	summary HoldingsSummary
	lots    lots
}

// Fold computes the holdings of symbol from txs, a ledger slice that may
// contain other assets. It fails atomically: on error no summary is produced.
func Fold(symbol string, txs []Transaction, method CostBasisMethod) (HoldingsSummary, error) {
	symbol = NormalizeSymbol(symbol)
	st := holdingState{summary: HoldingsSummary{Symbol: symbol, Method: method}}
	for _, tx := range SortTransactions(txs) {
		if tx.Type.IsCash() || NormalizeSymbol(tx.Symbol) != symbol {
			continue
		}
		if err := st.apply(tx); err != nil {
			return HoldingsSummary{}, err
		}
	}
	st.finish()
	return st.summary, nil
}

// FoldAll computes the holdings of every asset referenced in txs, sorted by symbol.
func FoldAll(txs []Transaction, method CostBasisMethod) ([]HoldingsSummary, error) {
	states := make(map[string]*holdingState)
	for _, tx := range SortTransactions(txs) {
		if tx.Type.IsCash() {
			continue
		}
		symbol := NormalizeSymbol(tx.Symbol)
		st, ok := states[symbol]
		if !ok {
			st = &holdingState{summary: HoldingsSummary{Symbol: symbol, Method: method}}
			states[symbol] = st
		}
		if err := st.apply(tx); err != nil {
			return nil, err
		}
	}
	result := make([]HoldingsSummary, 0, len(states))
	for _, st := range states {
		st.finish()
		result = append(result, st.summary)
	}
	slices.SortFunc(result, func(a, b HoldingsSummary) int { return cmp.Compare(a.Symbol, b.Symbol) })
	return result, nil
}

func (st *holdingState) apply(tx Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s := &st.summary
	if s.Currency == "" {
		s.Currency = tx.Currency
		zero := M(0, tx.Currency)
		s.TotalCost, s.RealizedPnL, s.Dividends, s.Fees = zero, zero, zero, zero
	}
	if tx.Currency != s.Currency {
		return &InvalidTransactionError{ID: tx.ID, Type: tx.Type,
			Reason: fmt.Sprintf("currency %s differs from %s used by %s", tx.Currency, s.Currency, s.Symbol)}
	}

	units := tx.Units()
	fees := tx.Fees()
	switch tx.Type {
	case Buy, TransferIn:
		cost := tx.Gross()
		if tx.Type == Buy {
			cost = cost.Add(fees)
		}
		s.Quantity = s.Quantity.Add(units)
		s.TotalCost = s.TotalCost.Add(cost)
		if s.Method == FIFO {
			st.lots = append(st.lots, Lot{Acquired: tx.Time, Quantity: units, Cost: cost})
		}

	case Sell, TransferOut:
		if !s.Quantity.IsPositive() || units.GreaterThan(s.Quantity) {
			return &InsufficientHoldingsError{Symbol: s.Symbol, Time: tx.Time, Held: s.Quantity, Requested: units}
		}
		costSold := st.costOfSelling(units)
		s.Quantity = s.Quantity.Sub(units)
		s.TotalCost = s.TotalCost.Sub(costSold)
		if s.Quantity.IsZero() {
			s.TotalCost = M(0, s.Currency)
		}
		if tx.Type == Sell {
			d := Disposal{
				TxID:      tx.ID,
				Time:      tx.Time,
				Quantity:  units,
				Proceeds:  tx.Gross(),
				CostBasis: costSold,
				Fees:      fees,
			}
			d.RealizedPnL = d.Proceeds.Sub(d.CostBasis).Sub(d.Fees)
			s.RealizedPnL = s.RealizedPnL.Add(d.RealizedPnL)
			s.Disposals = append(s.Disposals, d)
		}

	case Dividend:
		s.Dividends = s.Dividends.Add(tx.Gross().Sub(fees))

	case Split:
		s.Quantity = s.Quantity.Mul(units)
		st.lots = st.lots.split(units)

	default:
		return &InvalidTransactionError{ID: tx.ID, Type: tx.Type, Reason: "not an asset transaction"}
	}
	if tx.Type != TransferIn && tx.Type != TransferOut {
		s.Fees = s.Fees.Add(fees)
	}
	return nil
}

// costOfSelling returns the cost basis of units, held quantity is not updated.
func (st *holdingState) costOfSelling(units Quantity) Money {
	s := &st.summary
	if units.Equal(s.Quantity) {
		cost := s.TotalCost
		st.lots = nil
		return cost
	}
	if s.Method == FIFO {
		cost := st.lots.fifoCostOfSelling(units, s.Currency)
		st.lots = st.lots.sell(units)
		return cost
	}
	// C * q / Q, multiplying first keeps the division last.
	return s.TotalCost.Mul(units).Div(s.Quantity)
}

func (st *holdingState) finish() {
	s := &st.summary
	if s.Quantity.IsPositive() {
		s.AverageCost = s.TotalCost.Div(s.Quantity)
	} else {
		s.AverageCost = M(0, s.Currency)
	}
	if s.Method == FIFO {
		s.Lots = slices.Clone([]Lot(st.lots))
	}
}
