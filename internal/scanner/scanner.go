// Package scanner implements the arbitrage evaluation engine: on each
// tick it takes a snapshot copy of every configured symbol's books,
// walks the ladder between every ordered venue pair, and publishes the
// sorted results. Uses a periodic-tick loop under a cancellable context;
// the net-profit percent math itself lives in ladder.go, since fees are
// weighted by cost/revenue rather than applied as a flat spread discount.
package scanner

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"arbitrage/internal/metrics"
	"arbitrage/internal/models"
	"arbitrage/internal/store"
	"arbitrage/pkg/utils"
)

// minExecutableVolume is the epsilon below which an executable volume is
// treated as zero (no real liquidity crossed the profit threshold).
const minExecutableVolume = 1e-9

// Publisher receives the full sorted opportunity list for a scan tick.
// internal/broker.Broker satisfies this.
type Publisher interface {
	Publish(opps []models.Opportunity)
}

// Scanner runs the periodic evaluation loop.
type Scanner struct {
	store     *store.Store
	publisher Publisher
	cfg       models.Config
	logger    *zap.Logger
	interval  time.Duration
}

// New builds a Scanner that ticks every cfg.ScannerInterval seconds.
func New(st *store.Store, publisher Publisher, cfg models.Config, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := time.Duration(cfg.ScannerInterval) * time.Second
	if interval <= 0 {
		interval = time.Second
	}
	return &Scanner{store: st, publisher: publisher, cfg: cfg, logger: logger, interval: interval}
}

// Run ticks until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scanner) tick() {
	start := time.Now()
	var all []models.Opportunity
	bySymbol := make(map[string]int, len(s.cfg.Symbols))

	for _, symbol := range s.cfg.Symbols {
		books := s.store.CloneBooksFor(symbol)
		opps := s.evaluateSymbol(symbol, books)
		bySymbol[symbol] = len(opps)
		all = append(all, opps...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].NetProfitPct > all[j].NetProfitPct
	})

	s.publisher.Publish(all)
	metrics.RecordScanTick(float64(time.Since(start).Microseconds())/1000.0, bySymbol, len(all))
}

// evaluateSymbol evaluates every ordered (buy venue, sell venue) pair for
// symbol and returns the opportunities clearing the profit threshold.
func (s *Scanner) evaluateSymbol(symbol string, books map[string]*models.OrderBook) []models.Opportunity {
	if len(books) < 2 {
		return nil
	}

	volumeCap, ok := s.cfg.DesiredTradeVolumeBase[symbol]
	if !ok || volumeCap <= 0 {
		return nil
	}

	venues := make([]string, 0, len(books))
	for v := range books {
		venues = append(venues, v)
	}
	sort.Strings(venues)

	var out []models.Opportunity
	for _, buyVenue := range venues {
		feeBuy, ok := s.cfg.TakerFeePct[buyVenue]
		if !ok {
			continue
		}
		for _, sellVenue := range venues {
			if buyVenue == sellVenue {
				continue
			}
			feeSell, ok := s.cfg.TakerFeePct[sellVenue]
			if !ok {
				continue
			}

			buyBook := books[buyVenue]
			sellBook := books[sellVenue]

			result := walkLadder(buyBook.Asks, sellBook.Bids, volumeCap, s.cfg.MinProfitPct, feeBuy, feeSell)
			if result.executableVolume <= minExecutableVolume {
				continue
			}

			netProfitQuote := result.revenueQuote - result.costQuote - result.feesQuote

			out = append(out, models.Opportunity{
				ID:                   models.NewOpportunityID(symbol, buyVenue, sellVenue),
				Symbol:               symbol,
				BuyVenue:             buyVenue,
				SellVenue:            sellVenue,
				ExecutableVolumeBase: result.executableVolume,
				BuyPrice:             result.avgBuyPrice,
				SellPrice:            result.avgSellPrice,
				GrossProfitPct:       result.grossProfitPct,
				NetProfitPct:         result.netProfitPct,
				NetProfitQuote:       netProfitQuote,
				FeesPaidQuote:        result.feesQuote,
				TimestampMs:          utils.UnixMillis(),
			})
		}
	}
	return out
}
