// Package models holds the data shared across the scanner's core
// components: price levels, order books, venue status, and the
// opportunities the scanner publishes.
package models

import (
	"fmt"
	"strings"
)

// PricePoint is a single resting order at a price.
type PricePoint struct {
	Price  float64
	Volume float64
}

// Valid reports whether the level is a usable (positive, finite) quote.
func (p PricePoint) Valid() bool {
	return isFinitePositive(p.Price) && isFinitePositive(p.Volume)
}

// OrderBook is a normalized view of one venue's book for one symbol.
// Bids must be sorted descending by price, asks ascending, with no
// duplicate prices on either side and no crossed top-of-book.
type OrderBook struct {
	Venue     string
	Symbol    string
	Bids      []PricePoint
	Asks      []PricePoint
	UpdatedAt int64 // unix millis, 0 if unset
}

// Valid checks the invariants this package relies on elsewhere:
// strictly ordered ladders and a non-crossed top-of-book.
func (b *OrderBook) Valid() bool {
	if b == nil {
		return false
	}
	for _, lvl := range b.Bids {
		if !lvl.Valid() {
			return false
		}
	}
	for _, lvl := range b.Asks {
		if !lvl.Valid() {
			return false
		}
	}
	for i := 1; i < len(b.Bids); i++ {
		if b.Bids[i].Price >= b.Bids[i-1].Price {
			return false
		}
	}
	for i := 1; i < len(b.Asks); i++ {
		if b.Asks[i].Price <= b.Asks[i-1].Price {
			return false
		}
	}
	if len(b.Bids) > 0 && len(b.Asks) > 0 && b.Bids[0].Price >= b.Asks[0].Price {
		return false
	}
	return true
}

func isFinitePositive(f float64) bool {
	return f > 0 && f == f && f < 1e308 && f > -1e308
}

// VenueStatus is the lifecycle state of a per-venue session.
type VenueStatus string

const (
	StatusDisconnected VenueStatus = "disconnected"
	StatusConnecting   VenueStatus = "connecting"
	StatusConnected    VenueStatus = "connected"
	StatusError        VenueStatus = "error"
	StatusAuthError    VenueStatus = "auth_error"
	StatusUnsupported  VenueStatus = "unsupported"
	StatusNoPairs      VenueStatus = "no_pairs"
)

// Terminal reports whether the supervisor owning this status has
// permanently exited and will never retry.
func (s VenueStatus) Terminal() bool {
	switch s {
	case StatusAuthError, StatusUnsupported, StatusNoPairs:
		return true
	default:
		return false
	}
}

// Live reports whether a venue in this status may still hold books
// worth reading (connected or mid-(re)connection).
func (s VenueStatus) Live() bool {
	return s == StatusConnected || s == StatusConnecting
}

// Opportunity is a single evaluated two-leg arbitrage candidate, owned
// by the broker until the next scan tick replaces the whole list.
type Opportunity struct {
	ID                  string
	Symbol              string
	BuyVenue            string
	SellVenue           string
	ExecutableVolumeBase float64
	BuyPrice            float64
	SellPrice           float64
	GrossProfitPct      float64
	NetProfitPct        float64
	NetProfitQuote      float64
	FeesPaidQuote       float64
	TimestampMs         int64
}

// NewOpportunityID builds the opportunity id:
// symbol_without_separator + "-" + lower(buy_venue) + "-" + lower(sell_venue).
func NewOpportunityID(symbol, buyVenue, sellVenue string) string {
	stripped := strings.NewReplacer("/", "", "-", "", "_", "").Replace(symbol)
	return fmt.Sprintf("%s-%s-%s", stripped, strings.ToLower(buyVenue), strings.ToLower(sellVenue))
}

// wireOpportunity is the external JSON shape of an Opportunity; field
// names intentionally diverge from the internal struct above.
type wireOpportunity struct {
	ID                   string  `json:"id"`
	Symbol               string  `json:"symbol"`
	BuyExchange          string  `json:"buy_exchange"`
	SellExchange         string  `json:"sell_exchange"`
	ExecutableVolumeBase float64 `json:"executable_volume_base"`
	BuyPrice             float64 `json:"buy_price"`
	SellPrice            float64 `json:"sell_price"`
	PotentialProfitPct   float64 `json:"potential_profit_pct"`
	FeesPaidQuote        float64 `json:"fees_paid_quote"`
	NetProfitPct         float64 `json:"net_profit_pct"`
	NetProfitQuote       float64 `json:"net_profit_quote"`
	BuyNetwork           *string `json:"buy_network"`
	SellNetwork          *string `json:"sell_network"`
	Timestamp            int64   `json:"timestamp"`
}

// ToWire converts to the listing/push JSON contract. buy_network and
// sell_network are reserved and always null in this version.
func (o Opportunity) ToWire() interface{} {
	return wireOpportunity{
		ID:                   o.ID,
		Symbol:               o.Symbol,
		BuyExchange:          o.BuyVenue,
		SellExchange:         o.SellVenue,
		ExecutableVolumeBase: o.ExecutableVolumeBase,
		BuyPrice:             o.BuyPrice,
		SellPrice:            o.SellPrice,
		PotentialProfitPct:   o.GrossProfitPct,
		FeesPaidQuote:        o.FeesPaidQuote,
		NetProfitPct:         o.NetProfitPct,
		NetProfitQuote:       o.NetProfitQuote,
		Timestamp:            o.TimestampMs,
	}
}

// OpportunitiesToWire converts a whole slice, never returning nil so it
// always serializes as a JSON array (possibly empty).
func OpportunitiesToWire(opps []Opportunity) []interface{} {
	out := make([]interface{}, 0, len(opps))
	for _, o := range opps {
		out = append(out, o.ToWire())
	}
	return out
}

// Config is the immutable static configuration loaded once at startup.
type Config struct {
	Venues                 []string
	Symbols                []string
	OrderBookDepth         int
	MinProfitPct           float64
	ScannerInterval        int // seconds
	TakerFeePct            map[string]float64
	DesiredTradeVolumeBase map[string]float64
}
