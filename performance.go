package stockledger

import (
	"fmt"

	"github.com/etnz/stockledger/date"
	"github.com/shopspring/decimal"
)

// DefaultRiskFreeRate is the annual risk free rate used by Sharpe ratios.
var DefaultRiskFreeRate = decimal.RequireFromString("0.04")

// ValuePoint is the total value of the portfolio at the end of a day.
type ValuePoint struct {
	Date  date.Date
	Value Money
}

// PerformanceReport holds the return and risk statistics of a value series
// over a range. Statistics that are undefined for the series are invalid
// NullDecimal and the reason is listed in Notes.
type PerformanceReport struct {
	Range            date.Range
	Currency         string
	Series           []ValuePoint
	StartValue       Money
	EndValue         Money
	ReturnPercent    decimal.NullDecimal
	AnnualizedReturn decimal.NullDecimal // fraction
	CAGR             decimal.NullDecimal // fraction
	SharpeRatio      decimal.NullDecimal // on daily returns
	MaxDrawdown      decimal.Decimal     // fraction
	Notes            []string
}

// NewPerformanceReport computes the statistics of series, a value per day
// in date order. riskFree is an annual rate.
func NewPerformanceReport(r date.Range, currency string, series []ValuePoint, riskFree decimal.Decimal) PerformanceReport {
	rep := PerformanceReport{Range: r, Currency: currency, Series: series}
	if len(series) == 0 {
		rep.StartValue, rep.EndValue = M(0, currency), M(0, currency)
		rep.Notes = append(rep.Notes, "no value in range")
		return rep
	}
	values := make([]decimal.Decimal, len(series))
	for i, p := range series {
		values[i] = p.Value.Decimal()
	}
	first, last := series[0], series[len(series)-1]
	rep.StartValue, rep.EndValue = first.Value, last.Value
	rep.MaxDrawdown = MaxDrawdown(values)

	note := func(metric string, err error) {
		rep.Notes = append(rep.Notes, fmt.Sprintf("%s: %v", metric, err))
	}
	valid := func(d decimal.Decimal) decimal.NullDecimal { return decimal.NewNullDecimal(d) }

	pct, err := ReturnPercent(first.Value.Decimal(), last.Value.Decimal())
	if err != nil {
		note("return", err)
	} else {
		rep.ReturnPercent = valid(pct)
	}

	days := last.Date.DaysSince(first.Date)
	if err == nil {
		annual, err := AnnualizedReturn(pct.Div(hundred), days)
		if err != nil {
			note("annualized return", err)
		} else {
			rep.AnnualizedReturn = valid(annual)
		}
	}

	years := decimal.NewFromInt(int64(days)).Div(daysPY)
	if cagr, err := CAGR(first.Value.Decimal(), last.Value.Decimal(), years); err != nil {
		note("cagr", err)
	} else {
		rep.CAGR = valid(cagr)
	}

	returns, err := PeriodReturns(values)
	if err == nil {
		var sharpe decimal.Decimal
		sharpe, err = SharpeRatio(returns, riskFree.Div(daysPY))
		if err == nil {
			rep.SharpeRatio = valid(sharpe)
		}
	}
	if err != nil {
		note("sharpe ratio", err)
	}
	return rep
}
