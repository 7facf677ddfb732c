package chat

import (
	"errors"
	"testing"
)

func newTestSession(t *testing.T) (*Session, *testStoreEnv) {
	t.Helper()
	st := newTestStore(t)
	seedUser(t, st, "alice", "Alice")
	seedUser(t, st, "bob", "Bob")
	env := &testStoreEnv{}
	s := NewSession(st, "alice", nil, func(err error) { env.notices = append(env.notices, err) })
	t.Cleanup(s.Close)
	return s, env
}

type testStoreEnv struct {
	notices []error
}

func TestSessionOpenLoadsHistory(t *testing.T) {
	s, _ := newTestSession(t)
	st := s.st
	seedMessages(t, st, "c1", 25, 1000, "alice", "bob")

	if err := s.Open("c1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	got := s.Engine().Messages()
	if len(got) != PageSize {
		t.Fatalf("initial page length %d, want %d", len(got), PageSize)
	}
	if !s.Engine().HasMore() {
		t.Fatal("hasMore should be true with 25 messages")
	}
	if got[0].SenderName == "" {
		t.Fatal("sender names not resolved on load")
	}
}

func TestSessionSendRoundTripsThroughFeed(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Open("c1"); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := s.Send("hello there"); err != nil {
		t.Fatalf("send: %v", err)
	}

	// feed dispatch is synchronous, so the message is already in the list
	got := s.Engine().Messages()
	if len(got) != 1 {
		t.Fatalf("list length %d after send, want 1", len(got))
	}
	if got[0].Body != "hello there" || got[0].SenderName != "Alice" {
		t.Fatalf("delivered message: %+v", got[0])
	}
}

func TestSessionLiveInsertFromPeerAppears(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Open("c1"); err != nil {
		t.Fatalf("open: %v", err)
	}

	// the peer writes through their own gateway against the shared store
	peer := NewGateway(s.st)
	if err := peer.Send("c1", "bob", "hi alice"); err != nil {
		t.Fatalf("peer send: %v", err)
	}

	got := s.Engine().Messages()
	if len(got) != 1 || got[0].SenderName != "Bob" {
		t.Fatalf("peer message not delivered: %v", got)
	}
}

func TestSessionSwitchDropsOldConversationEvents(t *testing.T) {
	s, _ := newTestSession(t)
	seedMessages(t, s.st, "c1", 3, 1000, "alice")
	if err := s.Open("c1"); err != nil {
		t.Fatalf("open c1: %v", err)
	}
	if err := s.Open("c2"); err != nil {
		t.Fatalf("open c2: %v", err)
	}

	// traffic in the old conversation must not reach the new view
	peer := NewGateway(s.st)
	if err := peer.Send("c1", "bob", "late arrival"); err != nil {
		t.Fatalf("peer send: %v", err)
	}

	if got := s.Engine().Messages(); len(got) != 0 {
		t.Fatalf("old conversation leaked into the new view: %v", got)
	}
	if s.Engine().ConversationID() != "c2" {
		t.Fatalf("convID = %s", s.Engine().ConversationID())
	}
}

func TestSessionEditLifecycle(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Open("c1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Send("orignal"); err != nil {
		t.Fatalf("send: %v", err)
	}
	id := s.Engine().Messages()[0].ID

	if !s.StartEdit(id) {
		t.Fatal("start edit rejected")
	}
	if err := s.CommitEdit("original"); err != nil {
		t.Fatalf("commit edit: %v", err)
	}

	// the confirmed update event rewrote the list and cleared the flag
	got := s.Engine().Messages()
	if got[0].Body != "original" || got[0].EditedTS == 0 {
		t.Fatalf("edit not applied: %+v", got[0])
	}
	if got[0].Editing || s.Engine().EditingID() != "" {
		t.Fatal("editing flag not cleared by the update event")
	}
}

func TestSessionCommitEditWithoutEdit(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Open("c1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.CommitEdit("whatever"); !errors.Is(err, ErrNoEditInProgress) {
		t.Fatalf("err = %v, want ErrNoEditInProgress", err)
	}
}

func TestSessionDeleteRemovesOwnMessage(t *testing.T) {
	s, env := newTestSession(t)
	if err := s.Open("c1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Send("to be removed"); err != nil {
		t.Fatalf("send: %v", err)
	}
	id := s.Engine().Messages()[0].ID

	if err := s.Delete(id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := s.Engine().Messages(); len(got) != 0 {
		t.Fatalf("message still listed after delete: %v", got)
	}

	// deleting someone else's message fails and reports a notice
	peer := NewGateway(s.st)
	if err := peer.Send("c1", "bob", "bob's message"); err != nil {
		t.Fatalf("peer send: %v", err)
	}
	bobID := s.Engine().Messages()[0].ID
	if err := s.Delete(bobID); !errors.Is(err, ErrNoEffect) {
		t.Fatalf("err = %v, want ErrNoEffect", err)
	}
	if len(env.notices) == 0 {
		t.Fatal("failed delete did not surface a notice")
	}
	if got := s.Engine().Messages(); len(got) != 1 {
		t.Fatal("failed delete mutated the list")
	}
}

func TestSessionScrollBackfills(t *testing.T) {
	s, _ := newTestSession(t)
	seedMessages(t, s.st, "c1", 25, 1000, "alice", "bob")
	if err := s.Open("c1"); err != nil {
		t.Fatalf("open: %v", err)
	}

	s.Scroll(0)
	if got := s.Engine().Messages(); len(got) != 25 {
		t.Fatalf("list length %d after scroll-to-top, want 25", len(got))
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Open("c1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Close()
	s.Close()
}
