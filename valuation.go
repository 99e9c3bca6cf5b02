package stockledger

import (
	"errors"

	"github.com/etnz/stockledger/date"
)

// PositionValue is the valuation of one open holding.
//
// Price is in the asset currency. MarketValue and UnrealizedPnL are in the
// reporting currency and are nil when the price or the exchange rate is
// unknown.
type PositionValue struct {
	Symbol        string
	Currency      string
	Quantity      Quantity
	AverageCost   Money
	TotalCost     Money
	Price         *Money
	MarketValue   *Money
	UnrealizedPnL *Money
}

// Known reports whether the position contributes to the totals.
func (p PositionValue) Known() bool { return p.MarketValue != nil }

// Valuation is the value of a portfolio on a day, in a reporting currency.
// Only known positions and convertible cash contribute to the totals, the
// others are listed in Warnings.
type Valuation struct {
	Date              date.Date
	ReportingCurrency string
	Positions         []PositionValue
	Cash              []CashAccount // converted to the reporting currency
	PositionsValue    Money
	CashValue         Money
	TotalValue        Money
	Invested          Money // cost basis of the known positions
	UnrealizedPnL     Money
	Warnings          []error // *MissingPriceError or *MissingRateError
}

// Value combines holdings with prices and cash balances into a Valuation.
func Value(holdings []HoldingsSummary, cash []CashAccount, prices PriceLookup, rates CurrencyConverter, reportingCurrency string, on date.Date) Valuation {
	zero := M(0, reportingCurrency)
	v := Valuation{
		Date:              on,
		ReportingCurrency: reportingCurrency,
		PositionsValue:    zero,
		CashValue:         zero,
		TotalValue:        zero,
		Invested:          zero,
		UnrealizedPnL:     zero,
	}
	for _, h := range holdings {
		if !h.IsOpen() {
			continue
		}
		pos := PositionValue{
			Symbol:      h.Symbol,
			Currency:    h.Currency,
			Quantity:    h.Quantity,
			AverageCost: h.AverageCost,
			TotalCost:   h.TotalCost,
		}
		price, ok := lookupPrice(prices, h.Symbol)
		if !ok {
			v.Warnings = append(v.Warnings, &MissingPriceError{Symbol: h.Symbol})
			v.Positions = append(v.Positions, pos)
			continue
		}
		if price.Currency() == "" {
			price = price.In(h.Currency)
		}
		if price.Currency() != h.Currency {
			local, err := Convert(rates, price, h.Currency, on)
			if err != nil {
				v.Warnings = append(v.Warnings, asRateWarning(err, price.Currency(), h.Currency))
				v.Positions = append(v.Positions, pos)
				continue
			}
			price = local
		}
		pos.Price = &price
		local := price.Mul(h.Quantity)
		unrealized := price.Sub(h.AverageCost).Mul(h.Quantity)

		rate, err := lookupRate(rates, local.Currency(), reportingCurrency, on)
		if err != nil {
			v.Warnings = append(v.Warnings, asRateWarning(err, local.Currency(), reportingCurrency))
			v.Positions = append(v.Positions, pos)
			continue
		}
		toReporting := func(m Money) Money {
			if m.Currency() == reportingCurrency {
				return m
			}
			return m.Scale(rate).In(reportingCurrency)
		}
		value, pnl, cost := toReporting(local), toReporting(unrealized), toReporting(h.TotalCost)
		pos.MarketValue, pos.UnrealizedPnL = &value, &pnl
		v.Positions = append(v.Positions, pos)

		v.PositionsValue = v.PositionsValue.Add(value)
		v.UnrealizedPnL = v.UnrealizedPnL.Add(pnl)
		v.Invested = v.Invested.Add(cost)
	}
	for _, acc := range cash {
		converted, err := Convert(rates, acc.Balance, reportingCurrency, on)
		if err != nil {
			v.Warnings = append(v.Warnings, asRateWarning(err, acc.Currency, reportingCurrency))
			continue
		}
		v.Cash = append(v.Cash, CashAccount{Currency: acc.Currency, Balance: converted})
		v.CashValue = v.CashValue.Add(converted)
	}
	v.TotalValue = v.PositionsValue.Add(v.CashValue)
	return v
}

func lookupPrice(prices PriceLookup, symbol string) (Money, bool) {
	if prices == nil {
		return Money{}, false
	}
	return prices.CurrentPrice(symbol)
}

// asRateWarning keeps rate lookup failures typed.
func asRateWarning(err error, from, to string) error {
	var rateErr *MissingRateError
	if errors.As(err, &rateErr) {
		return rateErr
	}
	return &MissingRateError{From: from, To: to}
}

// WarningMessages returns the warnings as strings.
func (v Valuation) WarningMessages() []string {
	msgs := make([]string, 0, len(v.Warnings))
	for _, w := range v.Warnings {
		msgs = append(msgs, w.Error())
	}
	return msgs
}
