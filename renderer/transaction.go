package renderer

import (
	"fmt"

	"github.com/etnz/stockledger"
)

// Transaction renders a transaction to a string.
func Transaction(tx stockledger.Transaction) string {
	switch tx.Type {
	case stockledger.Buy:
		return fmt.Sprintf("Bought %s of %s at %s", tx.Units(), tx.Symbol, tx.UnitPrice())
	case stockledger.Sell:
		return fmt.Sprintf("Sold %s of %s at %s", tx.Units(), tx.Symbol, tx.UnitPrice())
	case stockledger.Dividend:
		return fmt.Sprintf("Dividend of %s for %s", tx.Gross(), tx.Symbol)
	case stockledger.Split:
		return fmt.Sprintf("Split %s by %s", tx.Symbol, tx.Quantity)
	case stockledger.TransferIn:
		return fmt.Sprintf("Transferred in %s of %s", tx.Units(), tx.Symbol)
	case stockledger.TransferOut:
		return fmt.Sprintf("Transferred out %s of %s", tx.Units(), tx.Symbol)
	case stockledger.Deposit:
		return fmt.Sprintf("Deposited %s", tx.Gross())
	case stockledger.Withdraw:
		return fmt.Sprintf("Withdrew %s", tx.Gross())
	default:
		return string(tx.Type)
	}
}
