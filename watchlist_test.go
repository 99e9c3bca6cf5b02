package stockledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestWatchlists(t *testing.T) {
	ctx := context.Background()
	s := NewWatchlists()
	if _, err := s.CreateWatchlist(ctx, "tech", "large caps"); err != nil {
		t.Fatalf("CreateWatchlist() unexpected error: %v", err)
	}
	if _, err := s.CreateWatchlist(ctx, "tech", ""); !errors.Is(err, ErrDuplicateWatchlist) {
		t.Errorf("CreateWatchlist() error = %v, want ErrDuplicateWatchlist", err)
	}
	for _, it := range []WatchlistItem{
		{Symbol: "msft", TargetPrice: decimal.NewNullDecimal(dec("380"))},
		{Symbol: "AAPL", TargetPrice: decimal.NewNullDecimal(dec("150"))},
		{Symbol: "NVDA"},
		{Symbol: "AAPL", TargetPrice: decimal.NewNullDecimal(dec("160")), Notes: "raised"},
	} {
		if err := s.AddToWatchlist(ctx, "tech", it); err != nil {
			t.Fatalf("AddToWatchlist() unexpected error: %v", err)
		}
	}
	w, err := s.Watchlist(ctx, "tech")
	if err != nil {
		t.Fatalf("Watchlist() unexpected error: %v", err)
	}
	if len(w.Items) != 3 || w.Items[0].Symbol != "AAPL" || w.Items[0].Notes != "raised" {
		t.Errorf("Items = %+v, want AAPL MSFT NVDA with AAPL replaced", w.Items)
	}

	market := NewMarketData()
	market.SetCurrentPrice("AAPL", USD(155))
	market.SetCurrentPrice("MSFT", USD(400))
	market.SetCurrentPrice("NVDA", USD(1))
	hits := w.TargetsHit(market)
	if len(hits) != 1 || hits[0].Item.Symbol != "AAPL" {
		t.Errorf("TargetsHit() = %+v, want AAPL only", hits)
	}

	if err := s.RemoveFromWatchlist(ctx, "tech", "nvda"); err != nil {
		t.Fatalf("RemoveFromWatchlist() unexpected error: %v", err)
	}
	if err := s.DeleteWatchlist(ctx, "tech"); err != nil {
		t.Fatalf("DeleteWatchlist() unexpected error: %v", err)
	}
	if _, err := s.Watchlist(ctx, "tech"); !errors.Is(err, ErrWatchlistNotFound) {
		t.Errorf("Watchlist() after delete error = %v, want ErrWatchlistNotFound", err)
	}
	if err := s.AddToWatchlist(ctx, "tech", WatchlistItem{Symbol: "AAPL"}); !errors.Is(err, ErrWatchlistNotFound) {
		t.Errorf("AddToWatchlist() error = %v, want ErrWatchlistNotFound", err)
	}
}
