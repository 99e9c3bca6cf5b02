package stockledger

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/etnz/stockledger/date"
	"golang.org/x/sync/errgroup"
)

// setupAccountingTest creates a ledger with a few positions in two
// currencies and the prices of the first days of 2025.
func setupAccountingTest(t *testing.T) *AccountingSystem {
	t.Helper()
	ctx := context.Background()

	market := NewMarketData()
	market.SetCurrency("AAPL", "USD")
	market.SetCurrency("SAP", "EUR")
	market.SetCurrency("EURUSD", "USD")
	for i, close := range []string{"100", "102", "101", "105", "110"} {
		market.SetClose("AAPL", date.New(2025, 1, 2+i), dec(close))
	}
	market.SetClose("SAP", date.New(2025, 1, 2), dec("200"))
	market.SetClose("EURUSD", date.New(2025, 1, 1), dec("1.1"))

	as, err := NewAccountingSystem(NewLedger(), market, "USD")
	if err != nil {
		t.Fatalf("NewAccountingSystem() failed: %v", err)
	}
	for _, tx := range []Transaction{
		NewDeposit(on("2025-01-02"), USD(5000)),
		NewBuy(on("2025-01-02", 1), "AAPL", q("10"), USD(100)),
		NewBuy(on("2025-01-02", 2), "SAP", q("5"), EUR(200)),
		NewSell(on("2025-01-05"), "AAPL", q("4"), USD(105)).WithFees(dec("2"), dec("0"), dec("0")),
	} {
		if _, err := as.Record(ctx, tx); err != nil {
			t.Fatalf("Record(%v) failed: %v", tx.Type, err)
		}
	}
	return as
}

func TestAccountingSystem_Holdings(t *testing.T) {
	as := setupAccountingTest(t)
	ctx := context.Background()

	got, err := as.Holdings(ctx, date.New(2025, 1, 4))
	if err != nil {
		t.Fatalf("Holdings() unexpected error: %v", err)
	}
	if len(got) != 2 || !got[0].Quantity.Equal(Q(10)) {
		t.Errorf("Holdings(2025-01-04) = %+v, want 10 AAPL before the sale", got)
	}

	got, err = as.Holdings(ctx, date.Date{})
	if err != nil {
		t.Fatalf("Holdings() unexpected error: %v", err)
	}
	if !got[0].Quantity.Equal(Q(6)) || !got[0].RealizedPnL.Equal(USD(18)) {
		t.Errorf("AAPL = %+v, want 6 units and 18 realized", got[0])
	}
}

func TestAccountingSystem_PortfolioValue(t *testing.T) {
	as := setupAccountingTest(t)
	v, err := as.PortfolioValue(context.Background(), "", date.New(2025, 1, 6))
	if err != nil {
		t.Fatalf("PortfolioValue() unexpected error: %v", err)
	}
	// AAPL 6*110 = 660, SAP 5*200*1.1 = 1100, cash 5000 - 1000 + 418 = 4418
	if !v.TotalValue.Equal(USD(6178)) {
		t.Errorf("TotalValue = %s, want 6178", v.TotalValue.Decimal())
	}
	if len(v.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", v.Warnings)
	}

	if _, err := as.PortfolioValue(context.Background(), "usd", date.New(2025, 1, 6)); err == nil {
		t.Errorf("PortfolioValue() accepted a lower case currency")
	}
}

func TestAccountingSystem_RecordRejects(t *testing.T) {
	as := setupAccountingTest(t)
	ctx := context.Background()
	before, _ := as.Ledger.Transactions(ctx, Filter{})

	testCases := []struct {
		name string
		tx   Transaction
		want error
	}{
		{"oversell", NewSell(on("2025-01-06"), "AAPL", q("15"), USD(110)), ErrInsufficientHoldings},
		{"backdated sell breaks a later sell", NewSell(on("2025-01-03"), "AAPL", q("7"), USD(101)), ErrInsufficientHoldings},
		{"overdraft", NewWithdraw(on("2025-01-06"), USD(10000)), ErrInsufficientCash},
		{"invalid", NewBuy(on("2025-01-06"), "AAPL", q("0"), USD(110)), ErrInvalidTransaction},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := as.Record(ctx, tc.tx); !errors.Is(err, tc.want) {
				t.Errorf("Record() error = %v, want %v", err, tc.want)
			}
		})
	}

	after, _ := as.Ledger.Transactions(ctx, Filter{})
	if len(after) != len(before) {
		t.Errorf("ledger has %d transactions after rejections, want %d", len(after), len(before))
	}

	if err := as.Ledger.DeactivateAsset(ctx, "SAP"); err != nil {
		t.Fatalf("DeactivateAsset() failed: %v", err)
	}
	if _, err := as.Record(ctx, NewBuy(on("2025-01-06"), "SAP", q("1"), EUR(200))); !errors.Is(err, ErrAssetInactive) {
		t.Errorf("Record() on an inactive asset error = %v, want ErrAssetInactive", err)
	}
}

func TestAccountingSystem_RecordConcurrentSells(t *testing.T) {
	ctx := context.Background()
	as, err := NewAccountingSystem(NewLedger(), nil, "USD")
	if err != nil {
		t.Fatalf("NewAccountingSystem() failed: %v", err)
	}
	if _, err := as.Record(ctx, NewBuy(on("2025-01-02"), "AAPL", q("10"), USD(100))); err != nil {
		t.Fatalf("Record(buy) failed: %v", err)
	}

	// only two sells of 5 fit in the 10 shares held.
	results := make([]error, 8)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			_, results[i] = as.Record(ctx, NewSell(on("2025-01-03"), "AAPL", q("5"), USD(110)))
			return nil
		})
	}
	g.Wait()

	recorded := 0
	for _, err := range results {
		var insufficient *InsufficientHoldingsError
		switch {
		case err == nil:
			recorded++
		case !errors.As(err, &insufficient):
			t.Errorf("Record(sell) error = %v, want insufficient holdings", err)
		}
	}
	if recorded != 2 {
		t.Errorf("recorded %d sells, want 2", recorded)
	}
	holdings, err := as.Holdings(ctx, date.New(2025, 1, 3))
	if err != nil {
		t.Fatalf("Holdings() failed: %v", err)
	}
	for _, h := range holdings {
		if h.Symbol == "AAPL" && !h.Quantity.IsZero() {
			t.Errorf("AAPL quantity = %s, want 0", h.Quantity)
		}
	}
}

func TestAccountingSystem_Performance(t *testing.T) {
	as := setupAccountingTest(t)
	r := date.Range{From: date.New(2025, 1, 1), To: date.New(2025, 1, 6)}
	rep, err := as.Performance(context.Background(), r)
	if err != nil {
		t.Fatalf("Performance() unexpected error: %v", err)
	}
	// 2025-01-01 precedes the first transaction.
	if len(rep.Series) != 5 || rep.Series[0].Date != date.New(2025, 1, 2) {
		t.Fatalf("Series = %+v, want 5 days from 2025-01-02", rep.Series)
	}
	// cash 4000 + AAPL 1000 + SAP 1100
	if !rep.StartValue.Equal(USD(6100)) || !rep.EndValue.Equal(USD(6178)) {
		t.Errorf("StartValue, EndValue = %s, %s, want 6100, 6178", rep.StartValue.Decimal(), rep.EndValue.Decimal())
	}
	if !rep.SharpeRatio.Valid || !rep.ReturnPercent.Valid {
		t.Errorf("report metrics undefined: %v", rep.Notes)
	}

	if _, err := as.Performance(context.Background(), date.Range{From: r.To, To: r.From}); err == nil {
		t.Errorf("Performance() accepted a reversed range")
	}
}

func TestAccountingSystem_NewSnapshot(t *testing.T) {
	as := setupAccountingTest(t)
	s, err := as.NewSnapshot(context.Background(), date.New(2025, 1, 6))
	if err != nil {
		t.Fatalf("NewSnapshot() unexpected error: %v", err)
	}
	if !s.TotalValue.Equal(USD(6178)) || s.Positions != 2 {
		t.Errorf("snapshot = %+v", s)
	}
	// 2025-01-05: cash 4418, AAPL 6*105, SAP 1100
	if !s.DailyChange.Equal(USD(30)) {
		t.Errorf("DailyChange = %s, want 30", s.DailyChange.Decimal())
	}
	if !s.RealizedPnL.Equal(USD(18)) {
		t.Errorf("RealizedPnL = %s, want 18", s.RealizedPnL.Decimal())
	}
	if !s.DailyChangePercent.Valid {
		t.Errorf("DailyChangePercent undefined")
	}
}

func TestAccountingSystem_SuggestPositionSize(t *testing.T) {
	as := setupAccountingTest(t)
	got, err := as.SuggestPositionSize(dec("100000"), dec("0.02"), dec("50"), dec("45"))
	if err != nil || got != 400 {
		t.Errorf("SuggestPositionSize() = %d, %v, want 400", got, err)
	}
}

func TestFold_ConcurrentDeterminism(t *testing.T) {
	var txs []Transaction
	for i := range 200 {
		day := date.New(2024, 1, 1).Add(i)
		txs = append(txs, NewBuy(day.Time(), "AAPL", q("1.5"), M(dec(fmt.Sprintf("%d.37", 100+i%17)), "USD")))
		if i%3 == 2 {
			txs = append(txs, NewSell(day.EndOfDay(), "AAPL", q("2"), M(dec(fmt.Sprintf("%d.11", 100+i%13)), "USD")))
		}
	}
	want, err := FoldAll(txs, FIFO)
	if err != nil {
		t.Fatalf("FoldAll() unexpected error: %v", err)
	}

	results := make([][]HoldingsSummary, 16)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			got, err := FoldAll(txs, FIFO)
			results[i] = got
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent FoldAll() failed: %v", err)
	}
	for i, got := range results {
		if !reflect.DeepEqual(got, want) {
			t.Errorf("concurrent fold %d differs from the sequential one", i)
		}
	}
}
