// Package simulated is a reference venue.Adapter that generates synthetic
// order book streams instead of talking to a real exchange. It exists so
// cmd/server can run end-to-end, discovering, connecting, and scanning,
// without any exchange credentials.
package simulated

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"arbitrage/internal/models"
	"arbitrage/internal/venue"
)

// Adapter is a synthetic venue: every configured symbol is "supported",
// and Stream emits a new order book on a fixed tick around a per-venue,
// per-symbol base price with a small random walk.
type Adapter struct {
	name      string
	basePrice map[string]float64
	depth     int
	spreadBps float64
	tick      time.Duration
	rng       *rand.Rand
}

// New builds a simulated adapter. basePrice seeds each symbol's starting
// mid price (symbols absent from the map default to 100). spreadBps is
// the synthetic half-spread in basis points applied around the mid.
func New(name string, basePrice map[string]float64, depth int, spreadBps float64, tick time.Duration, seed int64) *Adapter {
	if depth <= 0 {
		depth = 10
	}
	if tick <= 0 {
		tick = time.Second
	}
	return &Adapter{
		name:      name,
		basePrice: basePrice,
		depth:     depth,
		spreadBps: spreadBps,
		tick:      tick,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (a *Adapter) Name() string { return a.name }

// Discover reports every requested symbol as supported; a simulated
// venue never fails discovery.
func (a *Adapter) Discover(ctx context.Context, symbols []string) (venue.Capabilities, error) {
	return venue.Capabilities{Venue: a.name, SupportedSymbols: symbols}, nil
}

// Stream pushes a new synthetic order book for symbol every tick until
// ctx is cancelled.
func (a *Adapter) Stream(ctx context.Context, symbol string, updates chan<- venue.BookUpdate) error {
	mid := a.basePrice[symbol]
	if mid <= 0 {
		mid = 100
	}

	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			mid = randomWalk(a.rng, mid)
			book := a.buildBook(symbol, mid)
			select {
			case updates <- venue.BookUpdate{Book: book}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func randomWalk(rng *rand.Rand, mid float64) float64 {
	pctMove := (rng.Float64() - 0.5) * 0.002 // +/-0.1%
	next := mid * (1 + pctMove)
	if next <= 0 {
		return mid
	}
	return next
}

func (a *Adapter) buildBook(symbol string, mid float64) *models.OrderBook {
	halfSpread := mid * a.spreadBps / 10000
	bestBid := mid - halfSpread
	bestAsk := mid + halfSpread

	bids := make([]models.PricePoint, a.depth)
	asks := make([]models.PricePoint, a.depth)
	step := mid * 0.0005
	for i := 0; i < a.depth; i++ {
		bids[i] = models.PricePoint{
			Price:  bestBid - float64(i)*step,
			Volume: 0.5 + a.rng.Float64()*2,
		}
		asks[i] = models.PricePoint{
			Price:  bestAsk + float64(i)*step,
			Volume: 0.5 + a.rng.Float64()*2,
		}
	}

	return &models.OrderBook{
		Venue:     a.name,
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		UpdatedAt: time.Now().UnixMilli(),
	}
}

// String aids log messages and test failure output.
func (a *Adapter) String() string {
	return fmt.Sprintf("simulated.Adapter{%s}", a.name)
}
