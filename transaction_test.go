package stockledger

import (
	"errors"
	"testing"
)

func TestParseTransactionType(t *testing.T) {
	testCases := []struct {
		in      string
		want    TransactionType
		wantErr bool
	}{
		{"buy", Buy, false},
		{"SELL", Sell, false},
		{"transfer-in", TransferIn, false},
		{"TRANSFER_OUT", TransferOut, false},
		{" deposit ", Deposit, false},
		{"gift", "", true},
	}
	for _, tc := range testCases {
		got, err := ParseTransactionType(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseTransactionType(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidTransaction) {
			t.Errorf("ParseTransactionType(%q) error = %v, want ErrInvalidTransaction", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseTransactionType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTransaction_CashFlow(t *testing.T) {
	fees := func(tx Transaction) Transaction { return tx.WithFees(dec("1"), dec("0.5"), dec("0.25")) }
	testCases := []struct {
		name string
		tx   Transaction
		want Money
	}{
		{"buy", fees(NewBuy(on("2025-01-02"), "AAPL", q("2"), USD(10))), USD(-21.75)},
		{"sell", fees(NewSell(on("2025-01-02"), "AAPL", q("-2"), USD(10))), USD(18.25)},
		{"dividend", fees(NewDividend(on("2025-01-02"), "AAPL", q("2"), USD(10))), USD(18.25)},
		{"deposit", NewDeposit(on("2025-01-02"), USD(100)), USD(100)},
		{"withdraw", NewWithdraw(on("2025-01-02"), USD(100)), USD(-100)},
		{"split", NewSplit(on("2025-01-02"), "AAPL", q("3"), "USD"), USD(0)},
		{"transfer", NewTransferIn(on("2025-01-02"), "AAPL", q("3"), USD(10)), USD(0)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.tx.CashFlow(); !got.Equal(tc.want) {
				t.Errorf("CashFlow() = %s, want %s", got.Decimal(), tc.want.Decimal())
			}
		})
	}
}

func TestTransaction_Validate(t *testing.T) {
	valid := []Transaction{
		NewBuy(on("2025-01-02"), "AAPL", q("0.00000001"), USD(10)),
		NewSell(on("2025-01-02"), "AAPL", q("-3"), USD(0)),
		NewSplit(on("2025-01-02"), "AAPL", q("0.5"), "USD"),
		NewDeposit(on("2025-01-02"), EUR(1)),
	}
	for _, tx := range valid {
		if err := tx.Validate(); err != nil {
			t.Errorf("Validate(%s) unexpected error: %v", tx.Type, err)
		}
	}
	invalid := []Transaction{
		NewBuy(on("2025-01-02"), "", q("1"), USD(10)),
		NewBuy(on("2025-01-02"), "AAPL", q("1"), M(10, "usd")),
		NewBuy(on("2025-01-02"), "AAPL", q("1"), M(10, "ZZZ")),
		NewSplit(on("2025-01-02"), "AAPL", q("-2"), "USD"),
		NewDeposit(on("2025-01-02"), EUR(0)),
		{Type: Deposit, Symbol: "AAPL", Time: on("2025-01-02"), Quantity: Q(1), Price: dec("1"), Currency: "USD"},
		{Type: Buy, Symbol: "AAPL", Quantity: Q(1), Price: dec("1"), Currency: "USD"},
	}
	for i, tx := range invalid {
		err := tx.Validate()
		var txErr *InvalidTransactionError
		if !errors.As(err, &txErr) {
			t.Errorf("invalid[%d] Validate() error = %v, want *InvalidTransactionError", i, err)
		}
	}
}
