package simulated

import (
	"context"
	"testing"
	"time"

	"arbitrage/internal/venue"
)

func TestDiscoverReturnsAllRequestedSymbols(t *testing.T) {
	a := New("binance", nil, 5, 2, 10*time.Millisecond, 1)
	caps, err := a.Discover(context.Background(), []string{"BTC/USDT", "ETH/USDT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(caps.SupportedSymbols) != 2 {
		t.Fatalf("got %v", caps.SupportedSymbols)
	}
}

func TestStreamEmitsValidBooks(t *testing.T) {
	a := New("binance", map[string]float64{"BTC/USDT": 50000}, 5, 2, 5*time.Millisecond, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	updates := make(chan venue.BookUpdate, 16)
	done := make(chan error, 1)
	go func() { done <- a.Stream(ctx, "BTC/USDT", updates) }()

	received := 0
	for {
		select {
		case u := <-updates:
			received++
			if u.Err != nil {
				t.Fatalf("unexpected update error: %v", u.Err)
			}
			if !u.Book.Valid() {
				t.Fatalf("invalid synthetic book: %+v", u.Book)
			}
		case <-done:
			if received == 0 {
				t.Fatal("expected at least one book update before stream ended")
			}
			return
		}
	}
}
