package stockledger

import (
	"github.com/etnz/stockledger/date"
	"github.com/shopspring/decimal"
)

// PortfolioSnapshot is a cached point-in-time aggregate of the portfolio.
// It is derived from the ledger and the price history, and can always be
// rebuilt from them.
type PortfolioSnapshot struct {
	Date               date.Date
	ReportingCurrency  string
	TotalValue         Money
	CashValue          Money
	Cash               []CashAccount // in the reporting currency
	Invested           Money
	RealizedPnL        Money
	UnrealizedPnL      Money
	DailyChange        Money
	DailyChangePercent decimal.NullDecimal
	Positions          int
	Warnings           []string
}

// NewPortfolioSnapshot summarizes the valuation of a day. previous is the
// valuation of the day before, its zero value means there is none.
func NewPortfolioSnapshot(today, previous Valuation, holdings []HoldingsSummary, rates CurrencyConverter) PortfolioSnapshot {
	cur := today.ReportingCurrency
	s := PortfolioSnapshot{
		Date:              today.Date,
		ReportingCurrency: cur,
		TotalValue:        today.TotalValue,
		CashValue:         today.CashValue,
		Cash:              today.Cash,
		Invested:          today.Invested,
		RealizedPnL:       M(0, cur),
		UnrealizedPnL:     today.UnrealizedPnL,
		DailyChange:       M(0, cur),
		Warnings:          today.WarningMessages(),
	}
	for _, p := range today.Positions {
		if p.Known() {
			s.Positions++
		}
	}
	for _, h := range holdings {
		realized, err := Convert(rates, h.RealizedPnL, cur, today.Date)
		if err != nil {
			s.Warnings = append(s.Warnings, err.Error())
			continue
		}
		s.RealizedPnL = s.RealizedPnL.Add(realized)
	}
	if previous.ReportingCurrency == cur && !previous.Date.IsZero() {
		s.DailyChange = today.TotalValue.Sub(previous.TotalValue)
		if pct, err := ReturnPercent(previous.TotalValue.Decimal(), today.TotalValue.Decimal()); err == nil {
			s.DailyChangePercent = decimal.NewNullDecimal(pct)
		}
	}
	return s
}
