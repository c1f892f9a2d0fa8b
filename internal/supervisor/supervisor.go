// Package supervisor implements the session supervisor: one state
// machine per configured venue that discovers capability, connects,
// spawns a per-symbol watcher, and reconnects with exponential backoff
// on failure. Structured after a reconnect manager's atomic state and
// callback-driven reconnect loop, run under a context-cancellation
// supervision tree.
package supervisor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"arbitrage/internal/metrics"
	"arbitrage/internal/models"
	"arbitrage/internal/store"
	"arbitrage/internal/venue"
	"arbitrage/pkg/backoff"
	"arbitrage/pkg/ratelimit"
	"arbitrage/pkg/retry"
)

// Config controls backoff timing and rate limiting shared by every venue
// session. BackoffInitial/BackoffMax give a 1s start, doubling, clamp at
// 60s, reset to 1s on a successful connect. DiscoveryRetries/Initial/Max
// govern the fast in-call retry layer inside a single discover()
// attempt, separate from the slower session-level backoff.
type Config struct {
	BackoffInitial     time.Duration
	BackoffMax         time.Duration
	DiscoveryRate      float64 // discovery calls/sec allowed per venue
	DiscoveryBurst     float64
	BreakerMaxFailures uint32
	BreakerCooldown    time.Duration
	DiscoveryRetries   int
	DiscoveryRetryInit time.Duration
	DiscoveryRetryMax  time.Duration
}

// DefaultConfig gives the standard backoff schedule and a conservative
// discovery rate limit.
func DefaultConfig() Config {
	return Config{
		BackoffInitial:     time.Second,
		BackoffMax:         60 * time.Second,
		DiscoveryRate:      1,
		DiscoveryBurst:     2,
		BreakerMaxFailures: 5,
		BreakerCooldown:    30 * time.Second,
		DiscoveryRetries:   2,
		DiscoveryRetryInit: 200 * time.Millisecond,
		DiscoveryRetryMax:  time.Second,
	}
}

// Supervisor owns one session per venue.
type Supervisor struct {
	cfg    Config
	store  *store.Store
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// New builds a Supervisor writing venue state/books into st.
func New(cfg Config, st *store.Store, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{cfg: cfg, store: st, logger: logger, sessions: make(map[string]*session)}
}

// Run starts a session for adapter covering symbols, and blocks until ctx
// is cancelled. Intended to be called once per venue, each in its own
// goroutine, by the caller (cmd/server).
func (s *Supervisor) Run(ctx context.Context, adapter venue.Adapter, symbols []string) {
	name := adapter.Name()

	sess := newSession(name, adapter, symbols, s.cfg, s.store, s.logger)

	s.mu.Lock()
	s.sessions[name] = sess
	s.mu.Unlock()

	sess.run(ctx)

	s.mu.Lock()
	delete(s.sessions, name)
	s.mu.Unlock()
}

type session struct {
	name    string
	adapter venue.Adapter
	symbols []string
	cfg     Config
	store   *store.Store
	logger  *zap.Logger

	limiter *ratelimit.RateLimiter
	breaker *gobreaker.CircuitBreaker
	bo      *backoff.Backoff
}

func newSession(name string, adapter venue.Adapter, symbols []string, cfg Config, st *store.Store, logger *zap.Logger) *session {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name + "-discovery",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			var v float64
			switch to {
			case gobreaker.StateClosed:
				v = 0
			case gobreaker.StateHalfOpen:
				v = 1
			case gobreaker.StateOpen:
				v = 2
			}
			metrics.CircuitBreakerState.WithLabelValues(name).Set(v)
			logger.Info("discovery circuit breaker state change",
				zap.String("venue", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	return &session{
		name:    name,
		adapter: adapter,
		symbols: symbols,
		cfg:     cfg,
		store:   st,
		logger:  logger,
		limiter: ratelimit.NewRateLimiter(cfg.DiscoveryRate, cfg.DiscoveryBurst),
		breaker: breaker,
		bo:      backoff.New(cfg.BackoffInitial, cfg.BackoffMax),
	}
}

func (sess *session) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			sess.setStatus(models.StatusDisconnected)
			return
		}

		sess.setStatus(models.StatusConnecting)
		caps, err := sess.discover(ctx)
		if err != nil {
			if terminal, status := classifyDiscoveryError(err); terminal {
				sess.setStatus(status)
				return
			}
			sess.setStatus(models.StatusError)
			if !sess.sleep(ctx) {
				return
			}
			continue
		}

		if len(caps.SupportedSymbols) == 0 {
			sess.setStatus(models.StatusNoPairs)
			return
		}

		sess.bo.Reset()
		sess.setStatus(models.StatusConnected)
		sess.watchAll(ctx, caps.SupportedSymbols)

		// watchAll returns when every watcher has exited, meaning the
		// venue disconnected (or ctx was cancelled). Retry with backoff
		// unless the caller is shutting down.
		if ctx.Err() != nil {
			sess.setStatus(models.StatusDisconnected)
			return
		}
		sess.setStatus(models.StatusError)
		if !sess.sleep(ctx) {
			return
		}
	}
}

// discover rate-limits and circuit-breaks the adapter's discovery call,
// then gives transient failures ("unreachable right now", circuit
// still closed) up to DiscoveryRetries quick attempts in all (one retry
// with DefaultConfig) before handing back to run's
// slower session-level backoff. Terminal errors (auth, unsupported, no
// pairs) skip straight through since one more attempt won't help.
func (sess *session) discover(ctx context.Context) (venue.Capabilities, error) {
	if err := sess.limiter.Wait(ctx); err != nil {
		return venue.Capabilities{}, err
	}

	retryCfg := retry.Config{
		MaxRetries:   sess.cfg.DiscoveryRetries,
		InitialDelay: sess.cfg.DiscoveryRetryInit,
		MaxDelay:     sess.cfg.DiscoveryRetryMax,
		Multiplier:   2,
		JitterFactor: 0.1,
		RetryIf: func(err error) bool {
			terminal, _ := classifyDiscoveryError(err)
			return !terminal
		},
	}

	return retry.DoWithResult(ctx, func() (venue.Capabilities, error) {
		result, err := sess.breaker.Execute(func() (interface{}, error) {
			return sess.adapter.Discover(ctx, sess.symbols)
		})
		if err != nil {
			return venue.Capabilities{}, err
		}
		return result.(venue.Capabilities), nil
	}, retryCfg)
}

func classifyDiscoveryError(err error) (terminal bool, status models.VenueStatus) {
	switch {
	case errors.Is(err, venue.ErrAuth):
		return true, models.StatusAuthError
	case errors.Is(err, venue.ErrUnsupported):
		return true, models.StatusUnsupported
	case errors.Is(err, venue.ErrNoPairs):
		return true, models.StatusNoPairs
	default:
		return false, models.StatusError
	}
}

func (sess *session) sleep(ctx context.Context) bool {
	metrics.ReconnectAttempts.WithLabelValues(sess.name).Inc()
	delay := sess.bo.Next()
	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}

func (sess *session) setStatus(status models.VenueStatus) {
	sess.store.SetStatus(sess.name, status)
	if status.Terminal() {
		sess.logger.Warn("venue session exited permanently",
			zap.String("venue", sess.name), zap.String("status", string(status)))
	}
}

// watchAll runs one watcher goroutine per symbol under a session-local
// cancellable context derived from ctx. The first watcher to return a
// non-per-symbol, non-cancellation error cancels that context, tearing
// down every sibling watcher immediately rather than waiting for each to
// exit on its own; watchAll itself returns once all watchers have
// exited, handing control back to run() to reconnect.
func (sess *session) watchAll(ctx context.Context, symbols []string) {
	childCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			if err := sess.watchSymbol(childCtx, symbol); err != nil {
				cancel()
			}
		}(symbol)
	}
	wg.Wait()
}

// watchSymbol drives one (venue, symbol) streaming subscription. It
// returns nil for a clean exit (context cancelled, stream ended, or a
// permanent per-symbol failure it has already handled by dropping the
// symbol) and a non-nil error for any other stream failure, which the
// caller treats as a signal to tear down the whole session.
func (sess *session) watchSymbol(ctx context.Context, symbol string) error {
	updates := make(chan venue.BookUpdate, 16)
	streamErr := make(chan error, 1)

	go func() { streamErr <- sess.adapter.Stream(ctx, symbol, updates) }()

	defer sess.store.DropBook(sess.name, symbol)

	for {
		select {
		case u := <-updates:
			if u.Err != nil {
				sess.logger.Warn("book update error", zap.String("venue", sess.name), zap.String("symbol", symbol), zap.Error(u.Err))
				continue
			}
			sess.store.PutBook(sess.name, symbol, u.Book)
		case err := <-streamErr:
			if err == nil || ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, venue.ErrSymbolInvalid) {
				sess.logger.Info("symbol permanently invalid, dropping",
					zap.String("venue", sess.name), zap.String("symbol", symbol), zap.Error(err))
				return nil
			}
			sess.logger.Warn("stream error, tearing down session",
				zap.String("venue", sess.name), zap.String("symbol", symbol), zap.Error(err))
			return err
		case <-ctx.Done():
			return nil
		}
	}
}
