package store

import (
	"sync"

	"pairchat/pkg/logger"
)

// feed fans row-level change events out to live subscriptions. Dispatch
// runs on the store's write path while the write mutex is held, so every
// subscriber observes events in commit order.
type feed struct {
	mu     sync.Mutex
	nextID uint64
	subs   []*Subscription
}

func newFeed() *feed {
	return &feed{}
}

// Subscription is a handle on a change-feed registration. Close is
// idempotent: closing twice, or closing a subscription the feed already
// dropped, is a no-op.
type Subscription struct {
	id     uint64
	table  string
	filter Filter
	cb     ChangeCallbacks
	f      *feed
	once   sync.Once
}

func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.f.remove(s.id)
		logger.Debug("feed_unsubscribed", "table", s.table)
	})
}

func (f *feed) subscribe(table string, filter Filter, cb ChangeCallbacks) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	sub := &Subscription{id: f.nextID, table: table, filter: filter, cb: cb, f: f}
	f.subs = append(f.subs, sub)
	feedSubscriptions.Inc()
	return sub
}

func (f *feed) remove(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.subs {
		if s.id == id {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			feedSubscriptions.Dec()
			return
		}
	}
}

// matching snapshots the subscriptions interested in a row so callbacks
// can run without holding the feed lock; a callback may then subscribe or
// close subscriptions without deadlocking.
func (f *feed) matching(table string, fields map[string]any) []*Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Subscription
	for _, s := range f.subs {
		if s.table != table {
			continue
		}
		if !matches(fields, s.filter) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (f *feed) dispatchInsert(table string, fields map[string]any, raw []byte) {
	feedEvents.WithLabelValues(table, "insert").Inc()
	for _, s := range f.matching(table, fields) {
		if s.cb.OnInsert != nil {
			s.cb.OnInsert(raw)
		}
	}
}

func (f *feed) dispatchUpdate(table string, fields map[string]any, raw []byte) {
	feedEvents.WithLabelValues(table, "update").Inc()
	for _, s := range f.matching(table, fields) {
		if s.cb.OnUpdate != nil {
			s.cb.OnUpdate(raw)
		}
	}
}

// dispatchDelete matches against the pre-delete row fields but delivers
// only the id; the row is already gone.
func (f *feed) dispatchDelete(table string, fields map[string]any, id string) {
	feedEvents.WithLabelValues(table, "delete").Inc()
	for _, s := range f.matching(table, fields) {
		if s.cb.OnDelete != nil {
			s.cb.OnDelete(id)
		}
	}
}
