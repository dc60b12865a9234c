package store

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Table names usable with the change feed.
const (
	TableSales = "sales"
	TableFiles = "files"
)

// Publisher mirrors change signals to an external broker.
type Publisher interface {
	Publish(table string) error
}

// Feed is an in-process change feed. Signals carry no payload; subscribers
// are expected to re-query. Delivery is at-least-once and unordered, and a
// lagging subscriber sees consecutive notifications coalesced into one.
type Feed struct {
	mu        sync.Mutex
	subs      map[string]map[*Subscription]struct{}
	publisher Publisher
	log       *logrus.Logger
}

// Subscription is one listener on a table. It must be released with
// Unsubscribe when the owning consumer goes away.
type Subscription struct {
	C     chan struct{}
	table string
	feed  *Feed
	once  sync.Once
}

func NewFeed(log *logrus.Logger) *Feed {
	return &Feed{
		subs: make(map[string]map[*Subscription]struct{}),
		log:  log,
	}
}

// SetPublisher attaches an optional external mirror for change signals.
func (f *Feed) SetPublisher(p Publisher) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publisher = p
}

// Subscribe registers a listener for "something changed" signals on table.
func (f *Feed) Subscribe(table string) *Subscription {
	sub := &Subscription{
		C:     make(chan struct{}, 1),
		table: table,
		feed:  f,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs[table] == nil {
		f.subs[table] = make(map[*Subscription]struct{})
	}
	f.subs[table][sub] = struct{}{}
	return sub
}

// Unsubscribe releases the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		f := s.feed
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs[s.table], s)
	})
}

// Notify signals every subscriber of table without blocking. Stores call it
// after each successful mutation.
func (f *Feed) Notify(table string) {
	f.mu.Lock()
	publisher := f.publisher
	targets := make([]*Subscription, 0, len(f.subs[table]))
	for sub := range f.subs[table] {
		targets = append(targets, sub)
	}
	f.mu.Unlock()

	for _, sub := range targets {
		select {
		case sub.C <- struct{}{}:
		default: // subscriber still has a pending signal, coalesce
		}
	}

	if publisher != nil {
		if err := publisher.Publish(table); err != nil && f.log != nil {
			f.log.Warnf("publish change for %s: %v", table, err)
		}
	}
}
