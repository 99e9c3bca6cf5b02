package stockledger

import (
	"testing"

	"github.com/etnz/stockledger/date"
)

func series(currency string, from date.Date, values ...string) []ValuePoint {
	out := make([]ValuePoint, len(values))
	for i, v := range values {
		out[i] = ValuePoint{Date: from.Add(i), Value: M(dec(v), currency)}
	}
	return out
}

func TestNewPerformanceReport(t *testing.T) {
	from := date.New(2025, 1, 1)
	r := date.Range{From: from, To: from.Add(3)}
	rep := NewPerformanceReport(r, "USD", series("USD", from, "100", "110", "99", "121"), DefaultRiskFreeRate)

	if !rep.ReturnPercent.Valid || !rep.ReturnPercent.Decimal.Equal(dec("21")) {
		t.Errorf("ReturnPercent = %v, want 21", rep.ReturnPercent)
	}
	if !rep.MaxDrawdown.Equal(dec("0.1")) {
		t.Errorf("MaxDrawdown = %s, want 0.1", rep.MaxDrawdown)
	}
	if !rep.SharpeRatio.Valid {
		t.Errorf("SharpeRatio is undefined: %v", rep.Notes)
	}
	if !rep.AnnualizedReturn.Valid || !rep.CAGR.Valid {
		t.Errorf("AnnualizedReturn/CAGR undefined: %v", rep.Notes)
	}
	if !rep.StartValue.Equal(USD(100)) || !rep.EndValue.Equal(USD(121)) {
		t.Errorf("StartValue, EndValue = %v, %v", rep.StartValue, rep.EndValue)
	}
}

func TestNewPerformanceReport_Degenerate(t *testing.T) {
	from := date.New(2025, 1, 1)
	r := date.Range{From: from, To: from}

	rep := NewPerformanceReport(r, "USD", nil, DefaultRiskFreeRate)
	if rep.ReturnPercent.Valid || len(rep.Notes) == 0 {
		t.Errorf("empty series report = %+v, want undefined metrics with notes", rep)
	}

	rep = NewPerformanceReport(r, "USD", series("USD", from, "100"), DefaultRiskFreeRate)
	if !rep.ReturnPercent.Valid || !rep.ReturnPercent.Decimal.IsZero() {
		t.Errorf("ReturnPercent = %v, want 0", rep.ReturnPercent)
	}
	if rep.SharpeRatio.Valid || rep.AnnualizedReturn.Valid || rep.CAGR.Valid {
		t.Errorf("single point report = %+v, want undefined sharpe, annualized return and cagr", rep)
	}
	if !rep.MaxDrawdown.IsZero() {
		t.Errorf("MaxDrawdown = %s, want 0", rep.MaxDrawdown)
	}

	rep = NewPerformanceReport(r, "USD", series("USD", from, "0", "100"), DefaultRiskFreeRate)
	if rep.ReturnPercent.Valid || rep.SharpeRatio.Valid {
		t.Errorf("zero start report = %+v, want undefined return and sharpe", rep)
	}
}
