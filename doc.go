// Package stockledger is the accounting engine of an investor's portfolio.
// It folds an append-only transaction ledger into holdings, cost basis and
// realized gains, values them against externally supplied prices, and derives
// return and risk statistics from value series.
//
// The core functionalities include:
//   - Ledger: an immutable, chronological record of buys, sells, dividends,
//     splits, transfers and cash movements, behind the LedgerStore contract.
//   - Holdings: a deterministic fold of the ledger per asset, with weighted
//     average or FIFO lot matching, computed with exact decimal arithmetic.
//   - Valuation: market value and unrealized gains in a reporting currency.
//     Missing quotes or exchange rates are reported as warnings, never as zero.
//   - Performance: return, annualized return, CAGR, Sharpe ratio and maximum
//     drawdown on value series.
//   - Position sizing: the number of shares to buy for a given risk budget.
//
// Engine functions are pure. They can be called concurrently as long as
// every call owns its input slices. Persistence lives in the sqlstore
// package, and the sl command is the command line front end.
package stockledger
