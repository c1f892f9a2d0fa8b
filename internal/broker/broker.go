// Package broker implements the opportunity broker: subscribers each
// get a bounded queue of the latest opportunity list. A slow subscriber
// has messages dropped for it rather than blocking the scanner, and is
// unsubscribed after three consecutive drops. Uses the "copy the
// subscriber list under a short lock, then attempt delivery without
// holding it" pattern.
package broker

import (
	"strconv"
	"sync"

	"go.uber.org/zap"

	"arbitrage/internal/metrics"
	"arbitrage/internal/models"
)

// queueSize is the per-subscriber buffer depth.
const queueSize = 16

// maxConsecutiveDrops is the slow-consumer eviction threshold.
const maxConsecutiveDrops = 3

// Broker fans the latest opportunity list out to every subscriber and
// retains it for synchronous readers (the plain HTTP listing endpoint).
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int64]*subscriber
	nextID      int64
	logger      *zap.Logger
	latest      []models.Opportunity
}

type subscriber struct {
	id              int64
	ch              chan []models.Opportunity
	consecutiveDrop int
}

// New returns an empty Broker.
func New(logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		subscribers: make(map[int64]*subscriber),
		logger:      logger,
		latest:      []models.Opportunity{},
	}
}

// Subscription is a live subscriber handle. Receive the opportunity list
// from C and call Close when the subscriber goes away to free its slot.
type Subscription struct {
	id     int64
	C      <-chan []models.Opportunity
	broker *Broker
}

// Close unsubscribes, safe to call more than once.
func (s *Subscription) Close() {
	s.broker.unsubscribe(s.id)
}

// Subscribe registers a new subscriber, immediately enqueues the
// currently held opportunity list (so a client connecting between ticks
// doesn't wait for the next publish to see anything), and returns its
// handle.
func (b *Broker) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	sub := &subscriber{id: id, ch: make(chan []models.Opportunity, queueSize)}
	sub.ch <- b.latest // fresh, empty channel: cannot block.
	b.subscribers[id] = sub
	metrics.BrokerSubscribers.Set(float64(len(b.subscribers)))

	return &Subscription{id: id, C: sub.ch, broker: b}
}

func (b *Broker) unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		metrics.BrokerSubscribers.Set(float64(len(b.subscribers)))
	}
}

// Publish delivers opps to every current subscriber, non-blocking. A
// subscriber whose queue is full has this message dropped; after
// maxConsecutiveDrops in a row it is unsubscribed.
func (b *Broker) Publish(opps []models.Opportunity) {
	b.mu.Lock()
	b.latest = opps
	subs := make([]*subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	var toEvict []int64
	for _, sub := range subs {
		select {
		case sub.ch <- opps:
			sub.consecutiveDrop = 0
		default:
			sub.consecutiveDrop++
			metrics.BrokerDroppedMessages.WithLabelValues(subscriberLabel(sub.id)).Inc()
			if sub.consecutiveDrop >= maxConsecutiveDrops {
				toEvict = append(toEvict, sub.id)
			}
		}
	}

	if len(toEvict) == 0 {
		return
	}

	b.mu.Lock()
	for _, id := range toEvict {
		if _, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			metrics.BrokerUnsubscribed.Inc()
			b.logger.Info("unsubscribed slow consumer", zap.Int64("subscriber_id", id))
		}
	}
	metrics.BrokerSubscribers.Set(float64(len(b.subscribers)))
	b.mu.Unlock()
}

// SubscriberCount reports the current number of subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Latest returns the opportunity list from the most recent Publish call,
// or an empty list if none has happened yet. Satisfies
// handlers.OpportunityProvider.
func (b *Broker) Latest() []models.Opportunity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latest
}

func subscriberLabel(id int64) string {
	return strconv.FormatInt(id, 10)
}
