package stockledger

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors of the accounting engine. All of them denote bad input and
// are never worth retrying.
var (
	// ErrDivisionByZero is returned when a metric would divide by zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrUndefinedMetric is returned when a statistic is undefined for its
	// input (too few observations, zero deviation, non-positive base).
	ErrUndefinedMetric = errors.New("undefined metric")
	// ErrInvalidStopLoss is returned when the entry price equals the stop price.
	ErrInvalidStopLoss = errors.New("stop loss price must differ from entry price")
	// ErrInvalidRisk is returned when the risk fraction is outside (0, 1].
	ErrInvalidRisk = errors.New("risk must be in (0, 1]")
	// ErrAssetNotFound is returned when a symbol is not registered.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrAssetReferenced is returned when deleting an asset that still owns
	// transactions.
	ErrAssetReferenced = errors.New("asset is referenced by transactions")
	// ErrAssetInactive is returned when recording a transaction on a
	// deactivated asset.
	ErrAssetInactive = errors.New("asset is inactive")
	// ErrWatchlistNotFound is returned for unknown watchlists.
	ErrWatchlistNotFound = errors.New("watchlist not found")
	// ErrDuplicateWatchlist is returned when creating a watchlist whose name is taken.
	ErrDuplicateWatchlist = errors.New("watchlist already exists")

	// ErrInsufficientHoldings is matched by every *InsufficientHoldingsError.
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	// ErrInsufficientCash is matched by every *InsufficientCashError.
	ErrInsufficientCash = errors.New("insufficient cash")
	// ErrInvalidTransaction is matched by every *InvalidTransactionError.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrMissingPrice is matched by every *MissingPriceError.
	ErrMissingPrice = errors.New("missing price")
	// ErrMissingRate is matched by every *MissingRateError.
	ErrMissingRate = errors.New("missing exchange rate")
)

// InsufficientHoldingsError reports a disposal larger than the quantity held.
type InsufficientHoldingsError struct {
	Symbol    string
	Time      time.Time
	Held      Quantity
	Requested Quantity
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf("insufficient holdings of %s on %s: held %s, requested %s",
		e.Symbol, e.Time.Format(time.DateOnly), e.Held, e.Requested)
}

func (e *InsufficientHoldingsError) Is(target error) bool { return target == ErrInsufficientHoldings }

// InsufficientCashError reports a debit larger than a tracked cash balance.
type InsufficientCashError struct {
	Currency  string
	Time      time.Time
	Balance   Money
	Requested Money
}

func (e *InsufficientCashError) Error() string {
	return fmt.Sprintf("insufficient %s cash on %s: balance %s, requested %s",
		e.Currency, e.Time.Format(time.DateOnly), e.Balance, e.Requested)
}

func (e *InsufficientCashError) Is(target error) bool { return target == ErrInsufficientCash }

// InvalidTransactionError reports a malformed ledger entry.
type InvalidTransactionError struct {
	ID     int64
	Type   TransactionType
	Reason string
}

func (e *InvalidTransactionError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("invalid %s transaction #%d: %s", e.Type, e.ID, e.Reason)
	}
	return fmt.Sprintf("invalid %s transaction: %s", e.Type, e.Reason)
}

func (e *InvalidTransactionError) Is(target error) bool { return target == ErrInvalidTransaction }

// MissingPriceError is a non fatal valuation warning: the asset has no quote
// and its market value is unknown.
type MissingPriceError struct {
	Symbol string
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("no price available for %s, excluded from total", e.Symbol)
}

func (e *MissingPriceError) Is(target error) bool { return target == ErrMissingPrice }

// MissingRateError is a non fatal valuation warning: an amount could not be
// converted to the reporting currency.
type MissingRateError struct {
	From, To string
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no exchange rate from %s to %s, excluded from total", e.From, e.To)
}

func (e *MissingRateError) Is(target error) bool { return target == ErrMissingRate }
