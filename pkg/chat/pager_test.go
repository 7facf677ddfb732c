package chat

import (
	"encoding/json"
	"testing"

	"pairchat/pkg/models"
)

func TestLoadPageBoundaries(t *testing.T) {
	st := newTestStore(t)
	seedUser(t, st, "alice", "Alice")
	seedUser(t, st, "bob", "Bob")
	seedMessages(t, st, "c1", 25, 1000, "alice", "bob")

	p := NewPager(st)

	msgs, hasMore, err := p.LoadPage("c1", 0)
	if err != nil {
		t.Fatalf("page 0: %v", err)
	}
	if len(msgs) != PageSize {
		t.Fatalf("page 0 length %d, want %d", len(msgs), PageSize)
	}
	if !hasMore {
		t.Fatal("page 0 should report more history")
	}
	// page zero is the newest window, handed out ascending
	if msgs[0].ID != "m005" || msgs[len(msgs)-1].ID != "m024" {
		t.Fatalf("page 0 window [%s..%s], want [m005..m024]", msgs[0].ID, msgs[len(msgs)-1].ID)
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].TS < msgs[i-1].TS {
			t.Fatalf("page not ascending at %d", i)
		}
	}

	msgs, hasMore, err = p.LoadPage("c1", 1)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("page 1 length %d, want 5", len(msgs))
	}
	if hasMore {
		t.Fatal("page 1 should be the final page")
	}
	if msgs[0].ID != "m000" || msgs[4].ID != "m004" {
		t.Fatalf("page 1 window [%s..%s], want [m000..m004]", msgs[0].ID, msgs[4].ID)
	}

	msgs, hasMore, err = p.LoadPage("c1", 2)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(msgs) != 0 || hasMore {
		t.Fatalf("page past the end: len=%d hasMore=%v", len(msgs), hasMore)
	}
}

func TestLoadPageTiedTimestampsAscendByID(t *testing.T) {
	st := newTestStore(t)
	seedUser(t, st, "alice", "Alice")
	for _, id := range []string{"b", "a"} {
		raw, _ := json.Marshal(msg(id, "c1", 100))
		if _, err := st.Insert(models.TableMessages, raw); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	p := NewPager(st)
	msgs, _, err := p.LoadPage("c1", 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "a" || msgs[1].ID != "b" {
		t.Fatalf("tied timestamps must come out id-ascending, got %v", []string{msgs[0].ID, msgs[1].ID})
	}
}

func TestLoadPageResolvesSenderNames(t *testing.T) {
	st := newTestStore(t)
	seedUser(t, st, "alice", "Alice")
	// bob intentionally unregistered
	seedMessages(t, st, "c1", 4, 1000, "alice", "bob")

	p := NewPager(st)
	msgs, _, err := p.LoadPage("c1", 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, m := range msgs {
		switch m.SenderID {
		case "alice":
			if m.SenderName != "Alice" {
				t.Fatalf("alice name = %q", m.SenderName)
			}
		case "bob":
			// failed lookup leaves the name empty, page still loads
			if m.SenderName != "" {
				t.Fatalf("bob name = %q, want empty", m.SenderName)
			}
		}
	}
}

func TestLoadPageEmptyConversation(t *testing.T) {
	st := newTestStore(t)
	p := NewPager(st)
	msgs, hasMore, err := p.LoadPage("nothing-here", 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(msgs) != 0 || hasMore {
		t.Fatalf("empty conversation: len=%d hasMore=%v", len(msgs), hasMore)
	}
}
