package stockledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// riskBudget validates the sizing inputs and returns the amount at risk and
// the loss per share.
func riskBudget(portfolioValue, risk, entry, stop decimal.Decimal) (budget, perShare decimal.Decimal, err error) {
	if !risk.IsPositive() || risk.GreaterThan(one) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("risk %s: %w", risk, ErrInvalidRisk)
	}
	if entry.Equal(stop) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("entry %s, stop %s: %w", entry, stop, ErrInvalidStopLoss)
	}
	return portfolioValue.Mul(risk), entry.Sub(stop).Abs(), nil
}

// PositionSize returns the number of whole shares to buy so that hitting the
// stop loss costs risk (a fraction in (0, 1]) of the portfolio value:
// floor(value * risk / |entry - stop|).
func PositionSize(portfolioValue, risk, entry, stop decimal.Decimal) (int64, error) {
	budget, perShare, err := riskBudget(portfolioValue, risk, entry, stop)
	if err != nil {
		return 0, err
	}
	if !budget.IsPositive() {
		return 0, nil
	}
	q, _ := budget.QuoRem(perShare, 0)
	return q.IntPart(), nil
}

// FractionalPositionSize is like PositionSize for brokers that trade
// fractional shares: the size is rounded down to places decimals.
func FractionalPositionSize(portfolioValue, risk, entry, stop decimal.Decimal, places int32) (decimal.Decimal, error) {
	budget, perShare, err := riskBudget(portfolioValue, risk, entry, stop)
	if err != nil {
		return decimal.Zero, err
	}
	if !budget.IsPositive() {
		return decimal.Zero, nil
	}
	q, _ := budget.QuoRem(perShare, places)
	return q, nil
}
