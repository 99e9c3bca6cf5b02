package stockledger

import (
	"cmp"
	"slices"
)

// CashAccount is the balance of one currency. The balance is never negative.
type CashAccount struct {
	Currency string
	Balance  Money
}

// CashBalances folds the cash flows of txs into one account per currency.
//
// A currency is tracked from its first DEPOSIT on. Flows in currencies that
// never received a deposit are considered funded from outside the ledger and
// are ignored. A debit that would take a tracked balance below zero fails
// with an *InsufficientCashError.
func CashBalances(txs []Transaction) ([]CashAccount, error) {
	balances := make(map[string]Money)
	for _, tx := range SortTransactions(txs) {
		if err := tx.Validate(); err != nil {
			return nil, err
		}
		balance, tracked := balances[tx.Currency]
		if !tracked && tx.Type != Deposit {
			continue
		}
		if !tracked {
			balance = M(0, tx.Currency)
		}
		flow := tx.CashFlow()
		next := balance.Add(flow)
		if next.IsNegative() {
			return nil, &InsufficientCashError{Currency: tx.Currency, Time: tx.Time, Balance: balance, Requested: flow.Neg()}
		}
		balances[tx.Currency] = next
	}
	accounts := make([]CashAccount, 0, len(balances))
	for cur, b := range balances {
		accounts = append(accounts, CashAccount{Currency: cur, Balance: b})
	}
	slices.SortFunc(accounts, func(a, b CashAccount) int { return cmp.Compare(a.Currency, b.Currency) })
	return accounts, nil
}
