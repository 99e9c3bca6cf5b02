package stockledger

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/etnz/stockledger/date"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of a ledger entry.
type TransactionType string

const (
	Buy         TransactionType = "BUY"
	Sell        TransactionType = "SELL"
	Dividend    TransactionType = "DIVIDEND"
	Split       TransactionType = "SPLIT"
	TransferIn  TransactionType = "TRANSFER_IN"
	TransferOut TransactionType = "TRANSFER_OUT"
	Deposit     TransactionType = "DEPOSIT"
	Withdraw    TransactionType = "WITHDRAW"
)

// TransactionTypes lists every supported type, in display order.
var TransactionTypes = []TransactionType{Buy, Sell, Dividend, Split, TransferIn, TransferOut, Deposit, Withdraw}

// ParseTransactionType parses "buy", "TRANSFER_IN" or "transfer-in".
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_"))
	if !t.IsValid() {
		return "", &InvalidTransactionError{Type: TransactionType(s), Reason: "unknown transaction type"}
	}
	return t, nil
}

func (t TransactionType) IsValid() bool {
	for _, v := range TransactionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsCash reports whether the type is a pure cash movement, with no asset.
func (t TransactionType) IsCash() bool { return t == Deposit || t == Withdraw }

// IsDisposal reports whether the type removes units from a holding.
func (t TransactionType) IsDisposal() bool { return t == Sell || t == TransferOut }

func (t TransactionType) String() string { return string(t) }

// Transaction is an immutable ledger entry.
//
// Quantity is the number of units moved. Its sign is informative only: the
// magnitude is used. For a SPLIT it is the split ratio, for cash movements
// it is 1 and Price holds the amount.
type Transaction struct {
	ID         int64 // assigned on append
	Symbol     string
	Type       TransactionType
	Time       time.Time
	Quantity   Quantity
	Price      decimal.Decimal // per unit, in Currency
	Commission decimal.Decimal
	Tax        decimal.Decimal
	OtherFees  decimal.Decimal
	Currency   string
	Notes      string
	Broker     string
}

// NewBuy returns a BUY of quantity units at price per unit.
func NewBuy(on time.Time, symbol string, quantity Quantity, price Money) Transaction {
	return Transaction{Type: Buy, Time: on, Symbol: NormalizeSymbol(symbol), Quantity: quantity, Price: price.Decimal(), Currency: price.Currency()}
}

// NewSell returns a SELL of quantity units at price per unit.
func NewSell(on time.Time, symbol string, quantity Quantity, price Money) Transaction {
	return Transaction{Type: Sell, Time: on, Symbol: NormalizeSymbol(symbol), Quantity: quantity, Price: price.Decimal(), Currency: price.Currency()}
}

// NewDividend returns a DIVIDEND paying perUnit for each of the units entitled.
func NewDividend(on time.Time, symbol string, units Quantity, perUnit Money) Transaction {
	return Transaction{Type: Dividend, Time: on, Symbol: NormalizeSymbol(symbol), Quantity: units, Price: perUnit.Decimal(), Currency: perUnit.Currency()}
}

// NewSplit returns a SPLIT multiplying the units held by ratio.
func NewSplit(on time.Time, symbol string, ratio Quantity, currency string) Transaction {
	return Transaction{Type: Split, Time: on, Symbol: NormalizeSymbol(symbol), Quantity: ratio, Currency: currency}
}

// NewTransferIn returns a TRANSFER_IN of units at their carried price.
func NewTransferIn(on time.Time, symbol string, quantity Quantity, price Money) Transaction {
	return Transaction{Type: TransferIn, Time: on, Symbol: NormalizeSymbol(symbol), Quantity: quantity, Price: price.Decimal(), Currency: price.Currency()}
}

// NewTransferOut returns a TRANSFER_OUT of units.
func NewTransferOut(on time.Time, symbol string, quantity Quantity, price Money) Transaction {
	return Transaction{Type: TransferOut, Time: on, Symbol: NormalizeSymbol(symbol), Quantity: quantity, Price: price.Decimal(), Currency: price.Currency()}
}

// NewDeposit returns a DEPOSIT of amount.
func NewDeposit(on time.Time, amount Money) Transaction {
	return Transaction{Type: Deposit, Time: on, Quantity: Q(1), Price: amount.Decimal(), Currency: amount.Currency()}
}

// NewWithdraw returns a WITHDRAW of amount.
func NewWithdraw(on time.Time, amount Money) Transaction {
	return Transaction{Type: Withdraw, Time: on, Quantity: Q(1), Price: amount.Decimal(), Currency: amount.Currency()}
}

// WithFees returns a copy of tx with the given commission, tax and other fees.
func (tx Transaction) WithFees(commission, tax, other decimal.Decimal) Transaction {
	tx.Commission, tx.Tax, tx.OtherFees = commission, tax, other
	return tx
}

// Units is the magnitude of the quantity.
func (tx Transaction) Units() Quantity { return tx.Quantity.Abs() }

// UnitPrice is the price per unit.
func (tx Transaction) UnitPrice() Money { return M(tx.Price, tx.Currency) }

// Fees is the sum of commission, tax and other fees.
func (tx Transaction) Fees() Money {
	return M(tx.Commission.Add(tx.Tax).Add(tx.OtherFees), tx.Currency)
}

// Gross is the amount before fees: units times price.
func (tx Transaction) Gross() Money {
	if tx.Type == Split {
		return M(0, tx.Currency)
	}
	return tx.UnitPrice().Mul(tx.Units())
}

// CashFlow is the signed effect of the transaction on the cash account of
// its currency. Splits and transfers move no cash.
func (tx Transaction) CashFlow() Money {
	switch tx.Type {
	case Buy, Withdraw:
		return tx.Gross().Add(tx.Fees()).Neg()
	case Sell, Dividend, Deposit:
		return tx.Gross().Sub(tx.Fees())
	default:
		return M(0, tx.Currency)
	}
}

// Date returns the calendar day of the transaction, in UTC.
func (tx Transaction) Date() date.Date { return date.FromTime(tx.Time) }

// Normalize returns tx with its symbol and currency canonicalized.
func (tx Transaction) Normalize() Transaction {
	tx.Symbol = NormalizeSymbol(tx.Symbol)
	tx.Currency = strings.ToUpper(strings.TrimSpace(tx.Currency))
	if tx.Type.IsCash() && tx.Quantity.IsZero() {
		tx.Quantity = Q(1)
	}
	return tx
}

// Validate checks the intrinsic correctness of a transaction, independently
// of the rest of the ledger.
func (tx Transaction) Validate() error {
	invalid := func(format string, args ...any) error {
		return &InvalidTransactionError{ID: tx.ID, Type: tx.Type, Reason: fmt.Sprintf(format, args...)}
	}
	if !tx.Type.IsValid() {
		return invalid("unknown transaction type")
	}
	if tx.Time.IsZero() {
		return invalid("time is missing")
	}
	if tx.Type.IsCash() {
		if tx.Symbol != "" {
			return invalid("cash movement cannot reference asset %s", tx.Symbol)
		}
	} else if tx.Symbol == "" {
		return invalid("symbol is missing")
	}
	if err := ValidateCurrency(tx.Currency); err != nil {
		return invalid("%v", err)
	}
	if tx.Quantity.IsZero() {
		return invalid("quantity must not be zero")
	}
	switch tx.Type {
	case Buy, TransferIn, Split, Deposit, Withdraw:
		if tx.Quantity.IsNegative() {
			return invalid("quantity must be positive, got %s", tx.Quantity)
		}
	}
	if tx.Price.IsNegative() {
		return invalid("price must not be negative, got %s", tx.Price)
	}
	if tx.Type == Split && !tx.Price.IsZero() {
		return invalid("split carries no price")
	}
	if tx.Type.IsCash() && !tx.Price.IsPositive() {
		return invalid("amount must be positive")
	}
	fees := []struct {
		name  string
		value decimal.Decimal
	}{{"commission", tx.Commission}, {"tax", tx.Tax}, {"other fees", tx.OtherFees}}
	for _, fee := range fees {
		if fee.value.IsNegative() {
			return invalid("%s must not be negative, got %s", fee.name, fee.value)
		}
	}
	if tx.Type == Split && !tx.Fees().IsZero() {
		return invalid("split carries no fees")
	}
	return nil
}

// MarshalJSON writes the transaction with a stable field order, decimals as
// exact strings.
func (tx Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("id", tx.ID)
	w.Append("type", tx.Type)
	w.Append("time", tx.Time.UTC().Format(time.RFC3339Nano))
	w.Optional("symbol", tx.Symbol)
	w.Append("quantity", tx.Quantity)
	w.Append("price", tx.Price.String())
	w.Append("currency", tx.Currency)
	if !tx.Commission.IsZero() {
		w.Append("commission", tx.Commission.String())
	}
	if !tx.Tax.IsZero() {
		w.Append("tax", tx.Tax.String())
	}
	if !tx.OtherFees.IsZero() {
		w.Append("otherFees", tx.OtherFees.String())
	}
	w.Optional("notes", tx.Notes)
	w.Optional("broker", tx.Broker)
	return w.MarshalJSON()
}

// UnmarshalJSON reads the format written by MarshalJSON. The time can also
// be a plain date like "2025-01-31", and decimals can be numbers or strings.
func (tx *Transaction) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         int64           `json:"id"`
		Type       string          `json:"type"`
		Time       string          `json:"time"`
		Symbol     string          `json:"symbol"`
		Quantity   decimal.Decimal `json:"quantity"`
		Price      decimal.Decimal `json:"price"`
		Currency   string          `json:"currency"`
		Commission decimal.Decimal `json:"commission"`
		Tax        decimal.Decimal `json:"tax"`
		OtherFees  decimal.Decimal `json:"otherFees"`
		Notes      string          `json:"notes"`
		Broker     string          `json:"broker"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	typ, err := ParseTransactionType(raw.Type)
	if err != nil {
		return err
	}
	on, err := ParseTime(raw.Time)
	if err != nil {
		return err
	}
	*tx = Transaction{
		ID:         raw.ID,
		Type:       typ,
		Time:       on,
		Symbol:     raw.Symbol,
		Quantity:   Q(raw.Quantity),
		Price:      raw.Price,
		Currency:   raw.Currency,
		Commission: raw.Commission,
		Tax:        raw.Tax,
		OtherFees:  raw.OtherFees,
		Notes:      raw.Notes,
		Broker:     raw.Broker,
	}
	*tx = tx.Normalize()
	return nil
}

// ParseTime parses an RFC 3339 timestamp or a plain date (midnight UTC).
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	d, err := date.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return d.Time(), nil
}
