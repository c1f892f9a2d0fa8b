package scanner

import (
	"context"
	"sync"
	"testing"
	"time"

	"arbitrage/internal/models"
	"arbitrage/internal/store"
)

type capturingPublisher struct {
	mu   sync.Mutex
	last []models.Opportunity
	n    int
}

func (p *capturingPublisher) Publish(opps []models.Opportunity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = opps
	p.n++
}

func (p *capturingPublisher) snapshot() ([]models.Opportunity, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.n
}

func connectVenue(s *store.Store, venue string) {
	s.SetStatus(venue, models.StatusConnecting)
	s.SetStatus(venue, models.StatusConnected)
}

func TestEvaluateSymbolFindsOpportunity(t *testing.T) {
	st := store.New(nil)
	connectVenue(st, "binance")
	connectVenue(st, "okx")
	st.PutBook("binance", "BTC/USDT", &models.OrderBook{
		Venue: "binance", Symbol: "BTC/USDT",
		Asks: []models.PricePoint{{Price: 100, Volume: 1}},
		Bids: []models.PricePoint{{Price: 99, Volume: 1}},
	})
	st.PutBook("okx", "BTC/USDT", &models.OrderBook{
		Venue: "okx", Symbol: "BTC/USDT",
		Asks: []models.PricePoint{{Price: 99.5, Volume: 1}},
		Bids: []models.PricePoint{{Price: 105, Volume: 1}},
	})

	cfg := models.Config{
		Symbols:                []string{"BTC/USDT"},
		MinProfitPct:           0.1,
		ScannerInterval:        1,
		TakerFeePct:            map[string]float64{"binance": 0, "okx": 0},
		DesiredTradeVolumeBase: map[string]float64{"BTC/USDT": 1},
	}
	pub := &capturingPublisher{}
	s := New(st, pub, cfg, nil)

	books := st.CloneBooksFor("BTC/USDT")
	opps := s.evaluateSymbol("BTC/USDT", books)

	found := false
	for _, o := range opps {
		if o.BuyVenue == "binance" && o.SellVenue == "okx" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a buy-binance/sell-okx opportunity, got %+v", opps)
	}
}

func TestEvaluateSymbolNoOpportunityBelowThreshold(t *testing.T) {
	st := store.New(nil)
	connectVenue(st, "a")
	connectVenue(st, "b")
	st.PutBook("a", "BTC/USDT", &models.OrderBook{
		Asks: []models.PricePoint{{Price: 100, Volume: 1}},
		Bids: []models.PricePoint{{Price: 99, Volume: 1}},
	})
	st.PutBook("b", "BTC/USDT", &models.OrderBook{
		Asks: []models.PricePoint{{Price: 99.9, Volume: 1}},
		Bids: []models.PricePoint{{Price: 100.1, Volume: 1}},
	})

	cfg := models.Config{
		Symbols:                []string{"BTC/USDT"},
		MinProfitPct:           50, // unreasonably high threshold
		TakerFeePct:            map[string]float64{"a": 0, "b": 0},
		DesiredTradeVolumeBase: map[string]float64{"BTC/USDT": 1},
	}
	pub := &capturingPublisher{}
	s := New(st, pub, cfg, nil)
	opps := s.evaluateSymbol("BTC/USDT", st.CloneBooksFor("BTC/USDT"))
	if len(opps) != 0 {
		t.Fatalf("expected no opportunities above an unreachable threshold, got %+v", opps)
	}
}

func TestEvaluateSymbolSkipsSymbolWithoutVolumeCap(t *testing.T) {
	st := store.New(nil)
	connectVenue(st, "a")
	connectVenue(st, "b")
	st.PutBook("a", "BTC/USDT", &models.OrderBook{
		Asks: []models.PricePoint{{Price: 100, Volume: 1}},
		Bids: []models.PricePoint{{Price: 99, Volume: 1}},
	})
	st.PutBook("b", "BTC/USDT", &models.OrderBook{
		Asks: []models.PricePoint{{Price: 99, Volume: 1}},
		Bids: []models.PricePoint{{Price: 105, Volume: 1}},
	})

	cfg := models.Config{
		Symbols:      []string{"BTC/USDT"},
		MinProfitPct: 0.1,
		TakerFeePct:  map[string]float64{"a": 0, "b": 0},
		// DesiredTradeVolumeBase intentionally left empty for BTC/USDT.
	}
	s := New(st, &capturingPublisher{}, cfg, nil)
	opps := s.evaluateSymbol("BTC/USDT", st.CloneBooksFor("BTC/USDT"))
	if len(opps) != 0 {
		t.Fatalf("expected a symbol with no configured trade volume to be skipped entirely, got %+v", opps)
	}

	cfg.DesiredTradeVolumeBase = map[string]float64{"BTC/USDT": 0}
	s = New(st, &capturingPublisher{}, cfg, nil)
	opps = s.evaluateSymbol("BTC/USDT", st.CloneBooksFor("BTC/USDT"))
	if len(opps) != 0 {
		t.Fatalf("expected a symbol with a non-positive trade volume to be skipped entirely, got %+v", opps)
	}
}

func TestEvaluateSymbolSkipsPairMissingTakerFee(t *testing.T) {
	st := store.New(nil)
	connectVenue(st, "a")
	connectVenue(st, "b")
	st.PutBook("a", "BTC/USDT", &models.OrderBook{
		Asks: []models.PricePoint{{Price: 100, Volume: 1}},
		Bids: []models.PricePoint{{Price: 99, Volume: 1}},
	})
	st.PutBook("b", "BTC/USDT", &models.OrderBook{
		Asks: []models.PricePoint{{Price: 99, Volume: 1}},
		Bids: []models.PricePoint{{Price: 105, Volume: 1}},
	})

	cfg := models.Config{
		Symbols:                []string{"BTC/USDT"},
		MinProfitPct:           0.1,
		TakerFeePct:            map[string]float64{"a": 0}, // "b" missing
		DesiredTradeVolumeBase: map[string]float64{"BTC/USDT": 1},
	}
	s := New(st, &capturingPublisher{}, cfg, nil)
	opps := s.evaluateSymbol("BTC/USDT", st.CloneBooksFor("BTC/USDT"))
	if len(opps) != 0 {
		t.Fatalf("expected every pair touching a venue missing from taker_fee_pct to be excluded, got %+v", opps)
	}
}

// TestEvaluateSymbolAppliesFeesPerScenario reproduces the documented
// two-level-book example: asks [(100,0.5),(101,1.0)], bids
// [(102,0.4),(101.5,1.0)], 0.10% taker fee both sides, 1.0 unit cap.
// The best net-profit prefix stops at the first level (V=0.4) rather
// than walking to the cap, since the second level's net profit falls
// below the first's.
func TestEvaluateSymbolAppliesFeesPerScenario(t *testing.T) {
	st := store.New(nil)
	connectVenue(st, "buyVenue")
	connectVenue(st, "sellVenue")
	st.PutBook("buyVenue", "BTC/USDT", &models.OrderBook{
		Venue: "buyVenue", Symbol: "BTC/USDT",
		Asks: []models.PricePoint{{Price: 100, Volume: 0.5}, {Price: 101, Volume: 1.0}},
		Bids: []models.PricePoint{{Price: 90, Volume: 1}},
	})
	st.PutBook("sellVenue", "BTC/USDT", &models.OrderBook{
		Venue: "sellVenue", Symbol: "BTC/USDT",
		Asks: []models.PricePoint{{Price: 200, Volume: 1}},
		Bids: []models.PricePoint{{Price: 102, Volume: 0.4}, {Price: 101.5, Volume: 1.0}},
	})

	cfg := models.Config{
		Symbols:                []string{"BTC/USDT"},
		MinProfitPct:           0.5,
		TakerFeePct:            map[string]float64{"buyVenue": 0.10, "sellVenue": 0.10},
		DesiredTradeVolumeBase: map[string]float64{"BTC/USDT": 1.0},
	}
	s := New(st, &capturingPublisher{}, cfg, nil)
	opps := s.evaluateSymbol("BTC/USDT", st.CloneBooksFor("BTC/USDT"))

	var got *models.Opportunity
	for i := range opps {
		if opps[i].BuyVenue == "buyVenue" && opps[i].SellVenue == "sellVenue" {
			got = &opps[i]
		}
	}
	if got == nil {
		t.Fatalf("expected a buyVenue/sellVenue opportunity, got %+v", opps)
	}
	if !floatEquals(got.ExecutableVolumeBase, 0.4, 1e-6) {
		t.Errorf("expected executable volume 0.4, got %v", got.ExecutableVolumeBase)
	}
	if !floatEquals(got.NetProfitPct, 1.798, 1e-2) {
		t.Errorf("expected net profit pct near 1.798, got %v", got.NetProfitPct)
	}
}

func TestEvaluateSymbolNoOpportunityWithHigherFees(t *testing.T) {
	st := store.New(nil)
	connectVenue(st, "buyVenue")
	connectVenue(st, "sellVenue")
	st.PutBook("buyVenue", "BTC/USDT", &models.OrderBook{
		Asks: []models.PricePoint{{Price: 100, Volume: 0.5}, {Price: 101, Volume: 1.0}},
		Bids: []models.PricePoint{{Price: 90, Volume: 1}},
	})
	st.PutBook("sellVenue", "BTC/USDT", &models.OrderBook{
		Asks: []models.PricePoint{{Price: 200, Volume: 1}},
		Bids: []models.PricePoint{{Price: 102, Volume: 0.4}, {Price: 101.5, Volume: 1.0}},
	})

	cfg := models.Config{
		Symbols:                []string{"BTC/USDT"},
		MinProfitPct:           0.1,
		TakerFeePct:            map[string]float64{"buyVenue": 1.5, "sellVenue": 1.5},
		DesiredTradeVolumeBase: map[string]float64{"BTC/USDT": 1.0},
	}
	s := New(st, &capturingPublisher{}, cfg, nil)
	opps := s.evaluateSymbol("BTC/USDT", st.CloneBooksFor("BTC/USDT"))
	for _, o := range opps {
		if o.BuyVenue == "buyVenue" && o.SellVenue == "sellVenue" {
			t.Fatalf("expected 1.5%% fees each side to wipe out the spread, got %+v", o)
		}
	}
}

func TestTickPublishesSortedBestFirst(t *testing.T) {
	st := store.New(nil)
	connectVenue(st, "a")
	connectVenue(st, "b")
	st.PutBook("a", "BTC/USDT", &models.OrderBook{
		Asks: []models.PricePoint{{Price: 100, Volume: 1}},
		Bids: []models.PricePoint{{Price: 100.5, Volume: 1}},
	})
	st.PutBook("b", "BTC/USDT", &models.OrderBook{
		Asks: []models.PricePoint{{Price: 99, Volume: 1}},
		Bids: []models.PricePoint{{Price: 110, Volume: 1}},
	})

	cfg := models.Config{
		Symbols:                []string{"BTC/USDT"},
		MinProfitPct:           0.01,
		ScannerInterval:        1,
		TakerFeePct:            map[string]float64{"a": 0, "b": 0},
		DesiredTradeVolumeBase: map[string]float64{"BTC/USDT": 1},
	}
	pub := &capturingPublisher{}
	s := New(st, pub, cfg, nil)
	s.tick()

	opps, n := pub.snapshot()
	if n != 1 {
		t.Fatalf("expected exactly one publish call, got %d", n)
	}
	for i := 1; i < len(opps); i++ {
		if opps[i].NetProfitPct > opps[i-1].NetProfitPct {
			t.Fatalf("opportunities not sorted descending by net profit pct: %+v", opps)
		}
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	st := store.New(nil)
	cfg := models.Config{Symbols: []string{"BTC/USDT"}, ScannerInterval: 1}
	pub := &capturingPublisher{}
	s := New(st, pub, cfg, nil)
	s.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected Run to return promptly after context cancel")
	}

	if _, n := pub.snapshot(); n == 0 {
		t.Error("expected at least one tick to have published before cancel")
	}
}
