// Package metrics registers the Prometheus instruments exposed at
// /metrics, namespaced "arbitrage" with one subsystem per component,
// using promauto-registered package-level vectors plus RecordXxx/SetXxx
// helper functions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============ store subsystem ============

var bookLevels = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "arbitrage",
		Subsystem: "store",
		Name:      "book_levels",
		Help:      "Number of price levels currently held per venue/symbol/side",
	},
	[]string{"venue", "symbol", "side"},
)

var venueStatus = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "arbitrage",
		Subsystem: "store",
		Name:      "venue_status",
		Help:      "1 for the venue's current status, 0 otherwise",
	},
	[]string{"venue", "status"},
)

// SetBookLevels records the current bid/ask ladder depth for venue/symbol.
func SetBookLevels(venue, symbol string, bids, asks int) {
	bookLevels.WithLabelValues(venue, symbol, "bid").Set(float64(bids))
	bookLevels.WithLabelValues(venue, symbol, "ask").Set(float64(asks))
}

var allStatuses = []string{"disconnected", "connecting", "connected", "error", "auth_error", "unsupported", "no_pairs"}

// SetVenueStatus flips the gauge for venue's new status to 1 and every
// other known status for that venue to 0.
func SetVenueStatus(venue, status string) {
	for _, s := range allStatuses {
		if s == status {
			venueStatus.WithLabelValues(venue, s).Set(1)
		} else {
			venueStatus.WithLabelValues(venue, s).Set(0)
		}
	}
}

// ============ supervisor subsystem ============

var ReconnectAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "supervisor",
		Name:      "reconnect_attempts_total",
		Help:      "Total reconnect attempts per venue",
	},
	[]string{"venue"},
)

var CircuitBreakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "arbitrage",
		Subsystem: "supervisor",
		Name:      "circuit_breaker_state",
		Help:      "0=closed, 1=half-open, 2=open, per venue discovery breaker",
	},
	[]string{"venue"},
)

// ============ scanner subsystem ============

var ScanTickLatency = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "arbitrage",
		Subsystem: "scanner",
		Name:      "scan_tick_latency_ms",
		Help:      "Time to evaluate all symbols in one scan tick, in milliseconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500},
	},
)

var OpportunitiesFound = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "scanner",
		Name:      "opportunities_found_total",
		Help:      "Total opportunities found per symbol",
	},
	[]string{"symbol"},
)

var ActiveOpportunities = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "arbitrage",
		Subsystem: "scanner",
		Name:      "active_opportunities",
		Help:      "Number of opportunities published by the most recent scan tick",
	},
)

// RecordScanTick updates the scanner's per-tick latency histogram and
// opportunity counters.
func RecordScanTick(latencyMs float64, bySymbol map[string]int, total int) {
	ScanTickLatency.Observe(latencyMs)
	for symbol, n := range bySymbol {
		if n > 0 {
			OpportunitiesFound.WithLabelValues(symbol).Add(float64(n))
		}
	}
	ActiveOpportunities.Set(float64(total))
}

// ============ broker subsystem ============

var BrokerDroppedMessages = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "broker",
		Name:      "dropped_messages_total",
		Help:      "Total messages dropped for a slow subscriber",
	},
	[]string{"subscriber"},
)

var BrokerSubscribers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "arbitrage",
		Subsystem: "broker",
		Name:      "subscribers",
		Help:      "Current number of broker subscribers",
	},
)

var BrokerUnsubscribed = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "broker",
		Name:      "unsubscribed_total",
		Help:      "Total subscribers evicted for too many consecutive drops",
	},
)
