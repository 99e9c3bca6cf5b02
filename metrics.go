package stockledger

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// metricPrecision is the number of decimal places kept by irrational
// operations (roots and fractional powers).
const metricPrecision int32 = 16

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	daysPY  = decimal.NewFromInt(365)
)

// RoundHalfUp rounds d to places decimals, halves away from zero. Use it at
// the presentation boundary only.
func RoundHalfUp(d decimal.Decimal, places int32) decimal.Decimal { return d.Round(places) }

// ReturnPercent is (final - initial) / initial * 100.
func ReturnPercent(initial, final decimal.Decimal) (decimal.Decimal, error) {
	if initial.IsZero() {
		return decimal.Zero, fmt.Errorf("return percent with initial value 0: %w", ErrDivisionByZero)
	}
	return final.Sub(initial).Mul(hundred).Div(initial), nil
}

// AnnualizedReturn is (1 + r)^(365/days) - 1 where r is a total return
// fraction observed over days.
func AnnualizedReturn(totalReturn decimal.Decimal, days int) (decimal.Decimal, error) {
	if days <= 0 {
		return decimal.Zero, fmt.Errorf("annualized return over %d days: %w", days, ErrUndefinedMetric)
	}
	growth := one.Add(totalReturn)
	if growth.IsNegative() {
		return decimal.Zero, fmt.Errorf("annualized return of a loss above 100%%: %w", ErrUndefinedMetric)
	}
	if growth.IsZero() {
		return one.Neg(), nil
	}
	v, err := pow(growth, daysPY.Div(decimal.NewFromInt(int64(days))))
	if err != nil {
		return decimal.Zero, fmt.Errorf("annualized return: %w", err)
	}
	return v.Sub(one), nil
}

// CAGR is (end / begin)^(1 / years) - 1.
func CAGR(begin, end, years decimal.Decimal) (decimal.Decimal, error) {
	if !begin.IsPositive() {
		return decimal.Zero, fmt.Errorf("cagr with begin value %s: %w", begin, ErrUndefinedMetric)
	}
	if !years.IsPositive() {
		return decimal.Zero, fmt.Errorf("cagr over %s years: %w", years, ErrUndefinedMetric)
	}
	if end.IsNegative() {
		return decimal.Zero, fmt.Errorf("cagr with end value %s: %w", end, ErrUndefinedMetric)
	}
	if end.IsZero() {
		return one.Neg(), nil
	}
	exponent := one
	if !years.Equal(one) {
		exponent = one.Div(years)
	}
	v, err := pow(end.Div(begin), exponent)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cagr: %w", err)
	}
	return v.Sub(one), nil
}

// pow returns base^exp, exact for integer exponents.
func pow(base, exp decimal.Decimal) (decimal.Decimal, error) {
	var (
		v   decimal.Decimal
		err error
	)
	if exp.IsInteger() {
		v, err = base.PowInt32(int32(exp.IntPart()))
	} else {
		v, err = base.PowWithPrecision(exp, metricPrecision)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s^%s: %v: %w", base, exp, err, ErrUndefinedMetric)
	}
	return v, nil
}

// Mean is the arithmetic mean of xs.
func Mean(xs []decimal.Decimal) (decimal.Decimal, error) {
	if len(xs) == 0 {
		return decimal.Zero, fmt.Errorf("mean of an empty series: %w", ErrUndefinedMetric)
	}
	return decimal.Sum(decimal.Zero, xs...).Div(decimal.NewFromInt(int64(len(xs)))), nil
}

// SampleStdDev is the sample standard deviation of xs (n-1 denominator).
func SampleStdDev(xs []decimal.Decimal) (decimal.Decimal, error) {
	if len(xs) < 2 {
		return decimal.Zero, fmt.Errorf("standard deviation of %d observations: %w", len(xs), ErrUndefinedMetric)
	}
	mean, _ := Mean(xs)
	sq := decimal.Zero
	for _, x := range xs {
		d := x.Sub(mean)
		sq = sq.Add(d.Mul(d))
	}
	return sqrt(sq.Div(decimal.NewFromInt(int64(len(xs) - 1)))), nil
}

// sqrt uses Newton iterations seeded by the float64 root.
func sqrt(v decimal.Decimal) decimal.Decimal {
	if !v.IsPositive() {
		return decimal.Zero
	}
	const places = metricPrecision + 4
	two := decimal.NewFromInt(2)
	x := decimal.NewFromFloat(math.Sqrt(v.InexactFloat64()))
	if !x.IsPositive() {
		x = v
	}
	epsilon := decimal.New(1, -places)
	for range 64 {
		next := x.Add(v.DivRound(x, places)).DivRound(two, places)
		if next.Sub(x).Abs().LessThan(epsilon) {
			x = next
			break
		}
		x = next
	}
	return x.Round(metricPrecision)
}

// SharpeRatio is (mean(returns) - riskFree) / stdev(returns), using the
// sample standard deviation. riskFree must be expressed per period of the
// returns.
func SharpeRatio(returns []decimal.Decimal, riskFree decimal.Decimal) (decimal.Decimal, error) {
	if len(returns) < 2 {
		return decimal.Zero, fmt.Errorf("sharpe ratio of %d returns: %w", len(returns), ErrUndefinedMetric)
	}
	sd, err := SampleStdDev(returns)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sharpe ratio: %w", err)
	}
	if sd.IsZero() {
		return decimal.Zero, fmt.Errorf("sharpe ratio of constant returns: %w", ErrUndefinedMetric)
	}
	mean, _ := Mean(returns)
	return mean.Sub(riskFree).DivRound(sd, metricPrecision), nil
}

// MaxDrawdown is the largest decline from a running peak, as a non negative
// fraction of that peak. Series shorter than 2 have no drawdown. Non positive
// peaks are skipped.
func MaxDrawdown(values []decimal.Decimal) decimal.Decimal {
	worst := decimal.Zero
	if len(values) < 2 {
		return worst
	}
	peak := values[0]
	for _, v := range values[1:] {
		if v.GreaterThan(peak) {
			peak = v
			continue
		}
		if !peak.IsPositive() {
			continue
		}
		if dd := peak.Sub(v).Div(peak); dd.GreaterThan(worst) {
			worst = dd
		}
	}
	return worst
}

// PeriodReturns returns the simple returns v[i]/v[i-1] - 1 of a value series.
func PeriodReturns(values []decimal.Decimal) ([]decimal.Decimal, error) {
	if len(values) < 2 {
		return nil, nil
	}
	returns := make([]decimal.Decimal, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev.IsZero() {
			return nil, fmt.Errorf("return after a zero value at index %d: %w", i-1, ErrDivisionByZero)
		}
		returns = append(returns, values[i].Sub(prev).Div(prev))
	}
	return returns, nil
}

// CostPair is a quantity bought at a unit price.
type CostPair struct {
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// WeightedAverageCost is sum(quantity * price) / sum(quantity).
func WeightedAverageCost(pairs []CostPair) (decimal.Decimal, error) {
	total, qty := decimal.Zero, decimal.Zero
	for _, p := range pairs {
		total = total.Add(p.Quantity.Mul(p.Price))
		qty = qty.Add(p.Quantity)
	}
	if qty.IsZero() {
		return decimal.Zero, fmt.Errorf("weighted average cost of zero quantity: %w", ErrDivisionByZero)
	}
	return total.Div(qty), nil
}
