package chat

import (
	"errors"
	"sync"

	"pairchat/pkg/logger"
	"pairchat/pkg/store"
)

// ErrNoEditInProgress is returned by CommitEdit when no message carries
// the editing flag.
var ErrNoEditInProgress = errors.New("no edit in progress")

// Session wires the engine, feed adapter, pager, backfill controller and
// gateway together for one viewing user. Opening a conversation tears the
// previous subscription down, re-keys the engine and loads page zero;
// anything still in flight for the previous conversation is disregarded
// when it lands, keyed by conversation id inside the engine.
//
// Failures stay local to the session: they are reported through the
// notice callback (a dismissible notification in the view) and never
// partially applied to the canonical list.
type Session struct {
	st       store.Store
	userID   string
	engine   *Engine
	gateway  *Gateway
	pager    *Pager
	backfill *Backfill
	onNotice func(error)

	mu      sync.Mutex
	adapter *Adapter
}

// NewSession creates a session for the given viewing user. onChange and
// onNotice may be nil.
func NewSession(st store.Store, userID string, onChange func(Change), onNotice func(error)) *Session {
	eng := NewEngine(onChange)
	pager := NewPager(st)
	return &Session{
		st:       st,
		userID:   userID,
		engine:   eng,
		gateway:  NewGateway(st),
		pager:    pager,
		backfill: NewBackfill(eng, pager),
		onNotice: onNotice,
	}
}

func (s *Session) Engine() *Engine { return s.engine }

func (s *Session) notice(err error) {
	if s.onNotice != nil {
		s.onNotice(err)
	}
}

// Open switches the session to a conversation. The previous feed
// subscription is released before the new one is registered; subscribing
// before the initial load means a message racing the load arrives through
// both paths and is de-duplicated by the engine rather than lost.
// Calling Open again with the same id acts as an explicit retry after a
// failed load or a degraded subscription.
func (s *Session) Open(conversationID string) error {
	s.mu.Lock()
	old := s.adapter
	s.adapter = nil
	s.mu.Unlock()
	old.Close()

	s.engine.Reset(conversationID)

	ad, err := OpenAdapter(s.st, conversationID, s.engine)
	if err != nil {
		// degraded: history still loads, live updates are missing until
		// the next Open
		logger.Warn("subscription_failed", "conversation", conversationID, "err", err)
		s.notice(err)
	} else {
		s.mu.Lock()
		s.adapter = ad
		s.mu.Unlock()
	}

	msgs, hasMore, err := s.pager.LoadPage(conversationID, 0)
	if err != nil {
		s.notice(err)
		return err
	}
	s.engine.ApplyInitialPage(conversationID, msgs, hasMore)
	return nil
}

// Close releases the feed subscription. Safe to call repeatedly.
func (s *Session) Close() {
	s.mu.Lock()
	old := s.adapter
	s.adapter = nil
	s.mu.Unlock()
	old.Close()
}

// Scroll reports the viewport offset; reaching the top triggers backfill.
func (s *Session) Scroll(offset int) {
	if _, err := s.backfill.OnScroll(offset); err != nil {
		s.notice(err)
	}
}

// Send posts a new message to the open conversation. The message appears
// in the list only when its insert event round-trips through the feed; a
// brief latency-bound delay before it shows is the accepted trade-off of
// skipping client-generated temporary ids.
func (s *Session) Send(body string) error {
	if err := s.gateway.Send(s.engine.ConversationID(), s.userID, body); err != nil {
		s.notice(err)
		return err
	}
	return nil
}

func (s *Session) StartEdit(messageID string) bool {
	return s.engine.StartEdit(messageID)
}

func (s *Session) CancelEdit() {
	s.engine.CancelEdit()
}

// CommitEdit submits the pending edit through the gateway. The editing
// flag is not cleared here: the confirmed update event from the feed is
// what mutates the list and clears the flag, so a failed call changes
// nothing locally.
func (s *Session) CommitEdit(newBody string) error {
	id := s.engine.EditingID()
	if id == "" {
		return ErrNoEditInProgress
	}
	if err := s.gateway.Edit(id, newBody, s.userID); err != nil {
		s.notice(err)
		return err
	}
	return nil
}

// Delete removes one of the viewing user's own messages; the list updates
// when the delete event arrives.
func (s *Session) Delete(messageID string) error {
	if err := s.gateway.Delete(messageID, s.userID); err != nil {
		s.notice(err)
		return err
	}
	return nil
}
