// Package store implements the snapshot store: the single piece of
// shared state the supervisor writes into and the scanner reads from,
// guarded by one mutex.
package store

import (
	"sync"

	"go.uber.org/zap"

	"arbitrage/internal/metrics"
	"arbitrage/internal/models"
)

// Store holds the latest known order book per (venue, symbol) and the
// latest connection status per venue.
type Store struct {
	mu       sync.Mutex
	books    map[string]map[string]*models.OrderBook // venue -> symbol -> book
	statuses map[string]models.VenueStatus
	logger   *zap.Logger
}

// New returns an empty Store.
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		books:    make(map[string]map[string]*models.OrderBook),
		statuses: make(map[string]models.VenueStatus),
		logger:   logger,
	}
}

// PutBook records the latest order book for venue/symbol. Rejected
// (no-op) if venue has no row in the store: the supervisor has already
// torn it down, and this is a late update racing the teardown. Invalid
// books (crossed, unordered) are likewise rejected and logged rather
// than stored.
func (s *Store) PutBook(venue, symbol string, book *models.OrderBook) {
	if !book.Valid() {
		s.logger.Warn("rejecting invalid order book", zap.String("venue", venue), zap.String("symbol", symbol))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byVenue, ok := s.books[venue]
	if !ok {
		return
	}
	byVenue[symbol] = book
	metrics.SetBookLevels(venue, symbol, len(book.Bids), len(book.Asks))
}

// DropBook removes a book, e.g. when a venue disconnects or a symbol
// becomes unavailable.
func (s *Store) DropBook(venue, symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if byVenue, ok := s.books[venue]; ok {
		delete(byVenue, symbol)
	}
	metrics.SetBookLevels(venue, symbol, 0, 0)
}

// DropVenue removes venue's row entirely: no books are held for it, and
// PutBook rejects further writes until the row is recreated by a fresh
// transition into StatusConnecting.
func (s *Store) DropVenue(venue string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropVenueLocked(venue)
}

func (s *Store) dropVenueLocked(venue string) {
	delete(s.books, venue)
}

// SetStatus records venue's current connection status. Entering
// StatusConnecting (re)creates the venue's row, the supervisor's single
// entry point into holding live books. Leaving StatusConnected/
// StatusConnecting for any other status - error or terminal - drops the
// row: a venue whose status isn't live holds no books, though its
// status entry (including terminal statuses) is retained.
func (s *Store) SetStatus(venue string, status models.VenueStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[venue] = status
	switch {
	case status == models.StatusConnecting:
		if _, ok := s.books[venue]; !ok {
			s.books[venue] = make(map[string]*models.OrderBook)
		}
	case !status.Live():
		s.dropVenueLocked(venue)
	}
	metrics.SetVenueStatus(venue, string(status))
}

// Status returns venue's last known status and whether it has ever been
// recorded.
func (s *Store) Status(venue string) (models.VenueStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statuses[venue]
	return st, ok
}

// Statuses returns a copy of every recorded venue status.
func (s *Store) Statuses() map[string]models.VenueStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.VenueStatus, len(s.statuses))
	for k, v := range s.statuses {
		out[k] = v
	}
	return out
}

// CloneBooksFor returns a deep-enough copy of every venue's book for
// symbol, keyed by venue, restricted to venues whose status is
// connected or connecting. The copy is taken under a short lock so the
// scanner's ladder-walk never runs while holding the store's mutex.
func (s *Store) CloneBooksFor(symbol string) map[string]*models.OrderBook {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*models.OrderBook)
	for venue, bySymbol := range s.books {
		if !s.statuses[venue].Live() {
			continue
		}
		book, ok := bySymbol[symbol]
		if !ok {
			continue
		}
		cp := *book
		cp.Bids = append([]models.PricePoint(nil), book.Bids...)
		cp.Asks = append([]models.PricePoint(nil), book.Asks...)
		out[venue] = &cp
	}
	return out
}
