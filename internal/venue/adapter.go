// Package venue defines the collaborator contract the supervisor
// depends on: discovering what a venue supports and streaming its order
// books. This is a read-only market-data surface, no order placement,
// balances, or position management.
package venue

import (
	"context"
	"errors"

	"arbitrage/internal/models"
)

// ErrUnsupported signals a venue does not support the requested symbol
// or capability at all; the supervisor treats this as terminal.
var ErrUnsupported = errors.New("venue: unsupported")

// ErrAuth signals an authentication failure during discovery; the
// supervisor treats this as terminal.
var ErrAuth = errors.New("venue: authentication failed")

// ErrNoPairs signals a venue was reached but exposes none of the
// configured symbols; the supervisor treats this as terminal.
var ErrNoPairs = errors.New("venue: no configured pairs available")

// ErrSymbolInvalid signals a specific symbol was rejected mid-stream
// (delisted, suspended, or never valid to begin with). This is a
// per-symbol permanent failure: the supervisor drops that symbol's book
// and exits only its watcher, leaving the rest of the session running.
var ErrSymbolInvalid = errors.New("venue: symbol invalid")

// Capabilities describes what a venue can stream, discovered once before
// a venue's symbol watchers are started.
type Capabilities struct {
	Venue             string
	SupportedSymbols  []string
}

// BookUpdate is one order book snapshot or delta pushed by a venue's
// stream for a single symbol.
type BookUpdate struct {
	Book *models.OrderBook
	Err  error
}

// Adapter is the per-venue collaborator the supervisor drives. A real
// implementation wraps a venue's REST/WS client; Discover is expected to
// be cheap and is what the supervisor's circuit breaker and rate limiter
// guard.
type Adapter interface {
	// Name returns the venue's canonical identifier.
	Name() string

	// Discover probes the venue for capability and returns which of the
	// requested symbols it actually supports. Returns ErrAuth, ErrUnsupported,
	// or ErrNoPairs for terminal conditions, or a plain error for a
	// transient discovery failure worth retrying.
	Discover(ctx context.Context, symbols []string) (Capabilities, error)

	// Stream subscribes to order book updates for symbol and pushes them
	// to updates until ctx is cancelled or the stream breaks. Returning
	// ErrSymbolInvalid drops only that symbol's watcher; any other
	// non-nil error (for any reason other than ctx.Err()) tears down the
	// whole session, cancelling sibling watchers, and is treated by the
	// supervisor as a disconnect requiring reconnect-with-backoff.
	Stream(ctx context.Context, symbol string, updates chan<- BookUpdate) error
}
