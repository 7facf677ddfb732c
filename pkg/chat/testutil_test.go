package chat

import (
	"encoding/json"
	"fmt"
	"testing"

	"pairchat/pkg/models"
	"pairchat/pkg/store"
)

func newTestStore(t *testing.T) *store.Pebble {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedUser(t *testing.T, st store.Store, id, name string) {
	t.Helper()
	raw, _ := json.Marshal(models.User{ID: id, Name: name})
	if _, err := st.Insert(models.TableUsers, raw); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

// seedMessages inserts n messages into conv with ascending timestamps
// starting at base, alternating between the two senders.
func seedMessages(t *testing.T, st store.Store, conv string, n int, base int64, senders ...string) {
	t.Helper()
	if len(senders) == 0 {
		senders = []string{"alice"}
	}
	for i := 0; i < n; i++ {
		m := models.Message{
			ID:             fmt.Sprintf("m%03d", i),
			ConversationID: conv,
			SenderID:       senders[i%len(senders)],
			Body:           fmt.Sprintf("message %d", i),
			TS:             base + int64(i),
		}
		raw, _ := json.Marshal(m)
		if _, err := st.Insert(models.TableMessages, raw); err != nil {
			t.Fatalf("seed message %d: %v", i, err)
		}
	}
}

func msg(id, conv string, ts int64) models.Message {
	return models.Message{ID: id, ConversationID: conv, SenderID: "alice", Body: "b-" + id, TS: ts}
}
