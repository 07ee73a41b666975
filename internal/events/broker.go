// Package events is a small in-process pub/sub for store data changes.
// Services publish when ledger data mutates; interested parties (the
// HTTP summary cache, for one) subscribe per store. Subscriptions are
// explicit resources: callers must Unsubscribe or they leak.
package events

import "sync"

// Change describes a mutation in one store's data.
type Change struct {
	StoreID    string
	CustomerID string
	Kind       string // "customer" or "transaction"
}

// Subscription receives changes for one store until unsubscribed.
type Subscription struct {
	C chan Change

	broker  *Broker
	storeID string
	id      int
}

// Unsubscribe detaches the subscription and closes its channel. Safe to
// call more than once.
func (s *Subscription) Unsubscribe() {
	s.broker.unsubscribe(s)
}

// Broker fans out changes to per-store subscribers. Publishing never
// blocks: a subscriber that is not keeping up drops events.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]*Subscription
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]*Subscription)}
}

// Subscribe registers for changes in one store.
func (b *Broker) Subscribe(storeID string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscription{
		C:       make(chan Change, 16),
		broker:  b,
		storeID: storeID,
		id:      b.nextID,
	}
	if b.subs[storeID] == nil {
		b.subs[storeID] = make(map[int]*Subscription)
	}
	b.subs[storeID][sub.id] = sub
	return sub
}

// Publish delivers a change to every subscriber of its store.
func (b *Broker) Publish(c Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs[c.StoreID] {
		select {
		case sub.C <- c:
		default: // slow subscriber, drop
		}
	}
}

func (b *Broker) unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	store := b.subs[s.storeID]
	if _, ok := store[s.id]; !ok {
		return
	}
	delete(store, s.id)
	if len(store) == 0 {
		delete(b.subs, s.storeID)
	}
	close(s.C)
}
