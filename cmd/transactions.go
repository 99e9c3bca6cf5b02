package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/etnz/stockledger"
	"github.com/etnz/stockledger/date"
	"github.com/etnz/stockledger/renderer"
)

// recordCmd records a transaction of a given type in the ledger. One
// instance is registered per transaction type.
type recordCmd struct {
	typ stockledger.TransactionType

	date       string
	symbol     string
	quantity   string
	price      string
	currency   string
	commission string
	tax        string
	fees       string
	notes      string
	broker     string
}

func (c *recordCmd) Name() string {
	return strings.ToLower(strings.ReplaceAll(string(c.typ), "_", "-"))
}

func (c *recordCmd) Synopsis() string {
	switch c.typ {
	case stockledger.Buy:
		return "purchase shares to open or add to a position"
	case stockledger.Sell:
		return "sell shares of a position, realizing a gain or loss"
	case stockledger.Dividend:
		return "record a dividend paid by a held asset"
	case stockledger.Split:
		return "record a stock split"
	case stockledger.TransferIn:
		return "transfer shares in from another account"
	case stockledger.TransferOut:
		return "transfer shares out to another account"
	case stockledger.Deposit:
		return "deposit cash into the portfolio"
	case stockledger.Withdraw:
		return "withdraw cash from the portfolio"
	}
	return ""
}

func (c *recordCmd) Usage() string {
	switch c.typ {
	case stockledger.Split:
		return `sl split -s <symbol> -q <ratio> [-d <date>] [-m <memo>]

  Records a split of ratio new shares for one old share: the quantity held
  is multiplied by the ratio and the cost basis is unchanged.
`
	case stockledger.Deposit, stockledger.Withdraw:
		return fmt.Sprintf(`sl %s -a <amount> [-c <currency>] [-d <date>] [-m <memo>]

  %s. The currency defaults to the reporting currency.
`, c.Name(), upperFirst(c.Synopsis()))
	case stockledger.Dividend:
		return `sl dividend -s <symbol> -p <per share> [-q <shares>] [-d <date>] [-m <memo>]

  Records a dividend of -p per share. The number of shares defaults to the
  quantity held on the date. The cost basis is unchanged.
`
	}
	return fmt.Sprintf(`sl %s -s <symbol> -q <quantity> -p <price> [-d <date>] [-commission <fee>] [-tax <tax>] [-fees <fees>] [-m <memo>]

  %s. Quantities and prices are exact decimal numbers, the currency
  defaults to the currency of the asset.
`, c.Name(), upperFirst(c.Synopsis()))
}

func (c *recordCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Transaction date (YYYY-MM-DD) or RFC 3339 time")
	f.StringVar(&c.notes, "m", "", "An optional rationale or note for the transaction")
	f.StringVar(&c.broker, "broker", "", "Broker that executed the transaction")
	f.StringVar(&c.currency, "c", "", "Currency of the price, defaults to the asset or reporting currency")
	if c.typ.IsCash() {
		f.StringVar(&c.price, "a", "", "Amount")
		return
	}
	f.StringVar(&c.symbol, "s", "", "Asset ticker symbol")
	switch c.typ {
	case stockledger.Split:
		f.StringVar(&c.quantity, "q", "", "Split ratio, new shares for one old share")
		return
	case stockledger.Dividend:
		f.StringVar(&c.quantity, "q", "", "Number of shares, defaults to the quantity held")
		f.StringVar(&c.price, "p", "", "Dividend per share")
	default:
		f.StringVar(&c.quantity, "q", "", "Number of shares")
		f.StringVar(&c.price, "p", "", "Price per share")
	}
	f.StringVar(&c.commission, "commission", "", "Broker commission")
	f.StringVar(&c.tax, "tax", "", "Taxes paid on the transaction")
	f.StringVar(&c.fees, "fees", "", "Other fees")
}

func (c *recordCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := stockledger.ParseTime(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	store, as, err := openSystem(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	tx, err := c.transaction(ctx, as, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	recorded, err := as.Record(ctx, tx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording transaction: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Recorded #%d: %s\n", recorded.ID, renderer.Transaction(recorded))
	return subcommands.ExitSuccess
}

// transaction builds the transaction from the flags.
func (c *recordCmd) transaction(ctx context.Context, as *stockledger.AccountingSystem, on time.Time) (stockledger.Transaction, error) {
	if c.typ.IsCash() {
		cur := c.currency
		if cur == "" {
			cur = as.ReportingCurrency
		}
		amount, err := stockledger.ParseMoney(c.price, cur)
		if err != nil {
			return stockledger.Transaction{}, err
		}
		tx := stockledger.NewDeposit(on, amount)
		if c.typ == stockledger.Withdraw {
			tx = stockledger.NewWithdraw(on, amount)
		}
		tx.Notes, tx.Broker = c.notes, c.broker
		return tx, nil
	}

	symbol := stockledger.NormalizeSymbol(c.symbol)
	if symbol == "" {
		return stockledger.Transaction{}, errors.New("-s symbol is required")
	}
	cur, err := c.assetCurrency(ctx, as, symbol)
	if err != nil {
		return stockledger.Transaction{}, err
	}

	if c.typ == stockledger.Split {
		ratio, err := stockledger.ParseQuantity(c.quantity)
		if err != nil {
			return stockledger.Transaction{}, err
		}
		tx := stockledger.NewSplit(on, symbol, ratio, cur)
		tx.Notes, tx.Broker = c.notes, c.broker
		return tx, nil
	}

	price, err := stockledger.ParseMoney(c.price, cur)
	if err != nil {
		return stockledger.Transaction{}, err
	}
	var quantity stockledger.Quantity
	if c.typ == stockledger.Dividend && c.quantity == "" {
		if quantity, err = heldOn(ctx, as, symbol, on); err != nil {
			return stockledger.Transaction{}, err
		}
	} else if quantity, err = stockledger.ParseQuantity(c.quantity); err != nil {
		return stockledger.Transaction{}, err
	}

	var tx stockledger.Transaction
	switch c.typ {
	case stockledger.Buy:
		tx = stockledger.NewBuy(on, symbol, quantity, price)
	case stockledger.Sell:
		tx = stockledger.NewSell(on, symbol, quantity, price)
	case stockledger.Dividend:
		tx = stockledger.NewDividend(on, symbol, quantity, price)
	case stockledger.TransferIn:
		tx = stockledger.NewTransferIn(on, symbol, quantity, price)
	case stockledger.TransferOut:
		tx = stockledger.NewTransferOut(on, symbol, quantity, price)
	default:
		return stockledger.Transaction{}, fmt.Errorf("unsupported transaction type %s", c.typ)
	}

	var fees [3]decimal.Decimal
	for i, v := range []struct{ name, value string }{
		{"commission", c.commission},
		{"tax", c.tax},
		{"fees", c.fees},
	} {
		if fees[i], err = parseDecimal(v.name, v.value); err != nil {
			return stockledger.Transaction{}, err
		}
	}
	tx = tx.WithFees(fees[0], fees[1], fees[2])
	tx.Notes, tx.Broker = c.notes, c.broker
	return tx, nil
}

// assetCurrency returns the -c flag, the currency of the registered asset
// or the reporting currency, in that order.
func (c *recordCmd) assetCurrency(ctx context.Context, as *stockledger.AccountingSystem, symbol string) (string, error) {
	if c.currency != "" {
		return c.currency, nil
	}
	a, err := as.Ledger.Asset(ctx, symbol)
	switch {
	case err == nil:
		return a.Currency, nil
	case errors.Is(err, stockledger.ErrAssetNotFound):
		return as.ReportingCurrency, nil
	default:
		return "", err
	}
}

// heldOn returns the quantity of symbol held at t.
func heldOn(ctx context.Context, as *stockledger.AccountingSystem, symbol string, t time.Time) (stockledger.Quantity, error) {
	txs, err := as.Ledger.Transactions(ctx, stockledger.Filter{Symbol: symbol, Until: t})
	if err != nil {
		return stockledger.Quantity{}, err
	}
	h, err := stockledger.Fold(symbol, txs, as.Method)
	if err != nil {
		return stockledger.Quantity{}, err
	}
	if !h.IsOpen() {
		return stockledger.Quantity{}, fmt.Errorf("no %s held on %s, use -q", symbol, t.Format(time.DateOnly))
	}
	return h.Quantity, nil
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
