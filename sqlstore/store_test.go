package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etnz/stockledger"
	"github.com/etnz/stockledger/date"
	"github.com/etnz/stockledger/signals"
)

// setupTestStore opens a migrated in-memory store closed with the test.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Path: Memory, Log: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func usd(s string) stockledger.Money { return stockledger.M(dec(s), "USD") }

func at(day string, hour int) time.Time {
	return date.MustParse(day).Time().Add(time.Duration(hour) * time.Hour)
}

func TestOpen_Migrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "ledger.db")

	s, err := Open(ctx, Config{Path: path, Log: zerolog.Nop()})
	require.NoError(t, err)
	v, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
	_, err = s.Append(ctx, stockledger.NewBuy(at("2025-01-02", 10), "AAPL", stockledger.Q(1), usd("10")))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// reopening keeps the data and applies nothing
	s, err = Open(ctx, Config{Path: path, Log: zerolog.Nop()})
	require.NoError(t, err)
	defer s.Close()
	txs, err := s.Transactions(ctx, stockledger.Filter{})
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	_, err = Open(ctx, Config{})
	assert.Error(t, err)
}

func TestAppend_ExactRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	when := time.Date(2025, 1, 2, 15, 4, 5, 123456789, time.UTC)
	quantity, err := stockledger.ParseQuantity("0.00000001")
	require.NoError(t, err)
	in := stockledger.NewBuy(when, "btc", quantity, stockledger.M(dec("98765.43210987"), "USD")).
		WithFees(dec("0.01"), dec("0"), dec("1.005"))
	in.Notes = "first sats"
	in.Broker = "kraken"

	got, err := s.Append(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)

	txs, err := s.Transactions(ctx, stockledger.Filter{Symbol: "BTC"})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	tx := txs[0]
	assert.Equal(t, "BTC", tx.Symbol)
	assert.Equal(t, stockledger.Buy, tx.Type)
	assert.True(t, tx.Time.Equal(when), "time %s, want %s", tx.Time, when)
	assert.Equal(t, "0.00000001", tx.Quantity.String())
	assert.Equal(t, "98765.43210987", tx.Price.String())
	assert.Equal(t, "1.005", tx.OtherFees.String())
	assert.True(t, tx.Commission.Equal(dec("0.01")))
	assert.Equal(t, "first sats", tx.Notes)
	assert.Equal(t, "kraken", tx.Broker)

	a, err := s.Asset(ctx, "btc")
	require.NoError(t, err)
	assert.True(t, a.Active)
	assert.Equal(t, "USD", a.Currency)
	assert.Equal(t, stockledger.Stock, a.Type)
}

func TestTransactions_OrderAndFilter(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	for _, tx := range []stockledger.Transaction{
		stockledger.NewBuy(at("2025-01-03", 10), "AAPL", stockledger.Q(2), usd("100")),
		stockledger.NewBuy(at("2025-01-02", 10), "MSFT", stockledger.Q(1), usd("300")),
		stockledger.NewSell(at("2025-01-03", 10), "AAPL", stockledger.Q(1), usd("110")),
		stockledger.NewDeposit(at("2025-01-01", 9), usd("1000")),
	} {
		_, err := s.Append(ctx, tx)
		require.NoError(t, err)
	}

	all, err := s.Transactions(ctx, stockledger.Filter{})
	require.NoError(t, err)
	ids := make([]int64, len(all))
	for i, tx := range all {
		ids[i] = tx.ID
	}
	assert.Equal(t, []int64{4, 2, 1, 3}, ids, "time order, ties by id")
	assert.Equal(t, "", all[0].Symbol, "cash movements have no symbol")

	aapl, err := s.Transactions(ctx, stockledger.Filter{Symbol: "aapl"})
	require.NoError(t, err)
	assert.Len(t, aapl, 2)

	window, err := s.Transactions(ctx, stockledger.Filter{Since: at("2025-01-02", 0), Until: at("2025-01-02", 23)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "MSFT", window[0].Symbol)
}

func TestAppend_Rejections(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.Append(ctx, stockledger.NewBuy(at("2025-01-02", 10), "AAPL", stockledger.Q(0), usd("10")))
	assert.ErrorIs(t, err, stockledger.ErrInvalidTransaction)

	require.NoError(t, s.RegisterAsset(ctx, stockledger.NewAsset("SAP", "SAP SE", stockledger.Stock, "EUR")))
	_, err = s.Append(ctx, stockledger.NewBuy(at("2025-01-02", 10), "SAP", stockledger.Q(1), usd("10")))
	assert.ErrorIs(t, err, stockledger.ErrInvalidTransaction)

	require.NoError(t, s.DeactivateAsset(ctx, "sap"))
	_, err = s.Append(ctx, stockledger.NewBuy(at("2025-01-02", 10), "SAP", stockledger.Q(1), stockledger.M(10, "EUR")))
	assert.ErrorIs(t, err, stockledger.ErrAssetInactive)

	txs, err := s.Transactions(ctx, stockledger.Filter{})
	require.NoError(t, err)
	assert.Empty(t, txs)

	assert.ErrorIs(t, s.DeactivateAsset(ctx, "NOPE"), stockledger.ErrAssetNotFound)
	_, err = s.Asset(ctx, "NOPE")
	assert.ErrorIs(t, err, stockledger.ErrAssetNotFound)
}

func TestRegisterAsset(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	a := stockledger.NewAsset("vwce", "Vanguard FTSE All-World", stockledger.ETF, "EUR")
	a.Exchange = "XETRA"
	require.NoError(t, s.RegisterAsset(ctx, a))
	got, err := s.Asset(ctx, "VWCE")
	require.NoError(t, err)
	assert.Equal(t, "VWCE", got.Symbol)
	assert.Equal(t, "XETRA", got.Exchange)
	assert.Equal(t, stockledger.ETF, got.Type)

	// the currency can change while nothing references the asset
	a.Currency = "USD"
	require.NoError(t, s.RegisterAsset(ctx, a))
	_, err = s.Append(ctx, stockledger.NewBuy(at("2025-01-02", 10), "VWCE", stockledger.Q(1), usd("10")))
	require.NoError(t, err)
	a.Currency = "EUR"
	assert.ErrorIs(t, s.RegisterAsset(ctx, a), stockledger.ErrAssetReferenced)

	assets, err := s.Assets(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "USD", assets[0].Currency)
}

func TestDeleteAsset(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.Append(ctx, stockledger.NewBuy(at("2025-01-02", 10), "AAPL", stockledger.Q(1), usd("10")))
	require.NoError(t, err)
	assert.ErrorIs(t, s.DeleteAsset(ctx, "AAPL"), stockledger.ErrAssetReferenced)

	require.NoError(t, s.RegisterAsset(ctx, stockledger.NewAsset("TSLA", "Tesla", stockledger.Stock, "USD")))
	require.NoError(t, s.SavePrices(ctx, []stockledger.PriceBar{{Symbol: "TSLA", Date: date.New(2025, 1, 2), Close: dec("400")}}))
	_, err = s.CreateWatchlist(ctx, "ev", "")
	require.NoError(t, err)
	require.NoError(t, s.AddToWatchlist(ctx, "ev", stockledger.WatchlistItem{Symbol: "TSLA"}))
	require.NoError(t, s.SaveSignal(ctx, signals.TechnicalSignal{Symbol: "TSLA", Date: date.New(2025, 1, 2), Signal: signals.Hold}))

	require.NoError(t, s.DeleteAsset(ctx, "tsla"))
	for _, table := range []string{"price_history", "watchlist_items", "technical_signals"} {
		var n int
		require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE symbol = 'TSLA'`).Scan(&n))
		assert.Zero(t, n, "rows left in %s", table)
	}
	assert.ErrorIs(t, s.DeleteAsset(ctx, "TSLA"), stockledger.ErrAssetNotFound)
}

func TestPrices(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	require.NoError(t, s.RegisterAsset(ctx, stockledger.NewAsset("AAPL", "Apple", stockledger.Stock, "USD")))

	bars := []stockledger.PriceBar{
		{Symbol: "aapl", Date: date.New(2025, 1, 3), Open: dec("101"), High: dec("104.5"), Low: dec("100.25"), Close: dec("103.125"), AdjustedClose: dec("103.125"), Volume: 1000},
		{Symbol: "AAPL", Date: date.New(2025, 1, 2), Close: dec("100")},
	}
	require.NoError(t, s.SavePrices(ctx, bars))
	// replaces the bar of the same day
	require.NoError(t, s.SavePrices(ctx, []stockledger.PriceBar{{Symbol: "AAPL", Date: date.New(2025, 1, 2), Close: dec("99.5")}}))

	got, err := s.Prices(ctx, "AAPL", date.Range{From: date.New(2025, 1, 1), To: date.New(2025, 1, 31)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, date.New(2025, 1, 2), got[0].Date)
	assert.Equal(t, "99.5", got[0].Close.String())
	assert.Equal(t, "103.125", got[1].Close.String())
	assert.Equal(t, int64(1000), got[1].Volume)

	m, err := s.LoadMarketData(ctx)
	require.NoError(t, err)
	price, ok := m.PriceAsOf("AAPL", date.New(2025, 1, 2))
	require.True(t, ok)
	assert.True(t, price.Equal(usd("99.5")), "price %v", price)

	// all or nothing
	err = s.SavePrices(ctx, []stockledger.PriceBar{
		{Symbol: "AAPL", Date: date.New(2025, 1, 6), Close: dec("105")},
		{Symbol: "MSFT", Date: date.New(2025, 1, 6), Close: dec("400")},
	})
	assert.ErrorIs(t, err, stockledger.ErrAssetNotFound)
	got, err = s.Prices(ctx, "AAPL", date.Range{From: date.New(2025, 1, 1), To: date.New(2025, 1, 31)})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestWatchlists(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	w, err := s.CreateWatchlist(ctx, " tech ", "big caps")
	require.NoError(t, err)
	assert.Equal(t, "tech", w.Name)
	_, err = s.CreateWatchlist(ctx, "tech", "")
	assert.ErrorIs(t, err, stockledger.ErrDuplicateWatchlist)
	_, err = s.CreateWatchlist(ctx, "  ", "")
	assert.Error(t, err)

	added := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.AddToWatchlist(ctx, "tech", stockledger.WatchlistItem{Symbol: "msft", Added: added}))
	require.NoError(t, s.AddToWatchlist(ctx, "tech", stockledger.WatchlistItem{Symbol: "AAPL", TargetPrice: decimal.NewNullDecimal(dec("150.25")), Added: added}))
	require.NoError(t, s.AddToWatchlist(ctx, "tech", stockledger.WatchlistItem{Symbol: "AAPL", TargetPrice: decimal.NewNullDecimal(dec("140")), Notes: "lower", Added: added}))
	assert.ErrorIs(t, s.AddToWatchlist(ctx, "nope", stockledger.WatchlistItem{Symbol: "AAPL"}), stockledger.ErrWatchlistNotFound)

	got, err := s.Watchlist(ctx, "tech")
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "AAPL", got.Items[0].Symbol)
	assert.Equal(t, "lower", got.Items[0].Notes)
	assert.True(t, got.Items[0].TargetPrice.Valid)
	assert.Equal(t, "140", got.Items[0].TargetPrice.Decimal.String())
	assert.False(t, got.Items[1].TargetPrice.Valid)
	assert.True(t, got.Items[1].Added.Equal(added))

	require.NoError(t, s.RemoveFromWatchlist(ctx, "tech", "msft"))
	lists, err := s.Watchlists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Len(t, lists[0].Items, 1)

	require.NoError(t, s.DeleteWatchlist(ctx, "tech"))
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM watchlist_items`).Scan(&n))
	assert.Zero(t, n, "items are deleted with their watchlist")
	assert.ErrorIs(t, s.DeleteWatchlist(ctx, "tech"), stockledger.ErrWatchlistNotFound)
	_, err = s.Watchlist(ctx, "tech")
	assert.ErrorIs(t, err, stockledger.ErrWatchlistNotFound)
}

func TestSnapshots(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	snap := stockledger.PortfolioSnapshot{
		Date:               date.New(2025, 1, 6),
		ReportingCurrency:  "USD",
		TotalValue:         usd("6178.125"),
		CashValue:          usd("1000"),
		Cash:               []stockledger.CashAccount{{Currency: "EUR", Balance: usd("400")}, {Currency: "USD", Balance: usd("600")}},
		Invested:           usd("5000"),
		RealizedPnL:        usd("18"),
		UnrealizedPnL:      usd("178.125"),
		DailyChange:        usd("30"),
		DailyChangePercent: decimal.NewNullDecimal(dec("0.4879")),
		Positions:          2,
		Warnings:           []string{"no price available for X, excluded from total"},
	}
	require.NoError(t, s.SaveSnapshot(ctx, snap))
	snap.Positions = 3
	require.NoError(t, s.SaveSnapshot(ctx, snap))

	got, err := s.Snapshot(ctx, date.New(2025, 1, 6))
	require.NoError(t, err)
	assert.Equal(t, 3, got.Positions)
	assert.Equal(t, "6178.125", got.TotalValue.Decimal().String())
	assert.Equal(t, "USD", got.TotalValue.Currency())
	assert.Equal(t, "0.4879", got.DailyChangePercent.Decimal.String())
	assert.Equal(t, snap.Warnings, got.Warnings)
	require.Len(t, got.Cash, 2)
	assert.Equal(t, "EUR", got.Cash[0].Currency)
	assert.True(t, got.Cash[0].Balance.Equal(usd("400")))

	_, err = s.Snapshot(ctx, date.New(2025, 1, 7))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, s.SaveSnapshot(ctx, stockledger.PortfolioSnapshot{}))
}

func TestSignals(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	sig := signals.TechnicalSignal{
		Symbol:   "AAPL",
		Date:     date.New(2025, 1, 6),
		RSI14:    decimal.NewNullDecimal(dec("28.5")),
		SMA50:    decimal.NewNullDecimal(dec("101.25")),
		Signal:   signals.Buy,
		Strength: dec("1"),
	}
	err := s.SaveSignal(ctx, sig)
	require.Error(t, err, "signals need a registered asset")

	require.NoError(t, s.RegisterAsset(ctx, stockledger.NewAsset("AAPL", "Apple", stockledger.Stock, "USD")))
	require.NoError(t, s.SaveSignal(ctx, sig))
	older := sig
	older.Date = date.New(2025, 1, 3)
	older.Signal = signals.Sell
	require.NoError(t, s.SaveSignal(ctx, older))

	got, err := s.LatestSignal(ctx, "aapl")
	require.NoError(t, err)
	assert.Equal(t, date.New(2025, 1, 6), got.Date)
	assert.Equal(t, signals.Buy, got.Signal)
	assert.Equal(t, "28.5", got.RSI14.Decimal.String())
	assert.False(t, got.MACD.Valid)

	_, err = s.LatestSignal(ctx, "MSFT")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_AccountingSystem(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	market := stockledger.NewMarketData()
	market.SetCurrency("AAPL", "USD")
	market.SetClose("AAPL", date.New(2025, 1, 3), dec("120"))

	as, err := stockledger.NewAccountingSystem(s, market, "USD")
	require.NoError(t, err)
	_, err = as.Record(ctx, stockledger.NewBuy(at("2025-01-02", 10), "AAPL", stockledger.Q(10), usd("100")))
	require.NoError(t, err)
	_, err = as.Record(ctx, stockledger.NewSell(at("2025-01-03", 10), "AAPL", stockledger.Q(11), usd("120")))
	assert.ErrorIs(t, err, stockledger.ErrInsufficientHoldings)

	v, err := as.PortfolioValue(ctx, "USD", date.New(2025, 1, 3))
	require.NoError(t, err)
	assert.True(t, v.TotalValue.Equal(usd("1200")), "total %v", v.TotalValue)
}
