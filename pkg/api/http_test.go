package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pairchat/pkg/config"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return NewRouter(st, cfg)
}

func call(t *testing.T, h http.Handler, method, path, identity string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if identity != "" {
		req.Header.Set("X-Identity", identity)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestFullFlow(t *testing.T) {
	h := newTestRouter(t)

	// register both users with stable ids
	for _, u := range []map[string]string{
		{"id": "alice", "name": "Alice"},
		{"id": "bob", "name": "Bob"},
	} {
		if rr := call(t, h, "POST", "/v1/users", "", u); rr.Code != http.StatusCreated {
			t.Fatalf("create user: %d %s", rr.Code, rr.Body.String())
		}
	}

	// alice asks, bob accepts
	rr := call(t, h, "POST", "/v1/friend-requests", "alice", map[string]string{"receiver_id": "bob"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("friend request: %d %s", rr.Code, rr.Body.String())
	}
	req := decode[models.FriendRequest](t, rr)

	// only the receiver may settle it
	if rr := call(t, h, "POST", "/v1/friend-requests/"+req.ID+"/accept", "alice", nil); rr.Code != http.StatusForbidden {
		t.Fatalf("sender accepting own request: %d", rr.Code)
	}
	rr = call(t, h, "POST", "/v1/friend-requests/"+req.ID+"/accept", "bob", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("accept: %d %s", rr.Code, rr.Body.String())
	}
	conv := decode[models.Conversation](t, rr)

	// both sides list the conversation
	for _, user := range []string{"alice", "bob"} {
		rr := call(t, h, "GET", "/v1/conversations", user, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("list conversations for %s: %d", user, rr.Code)
		}
		convs := decode[[]models.Conversation](t, rr)
		if len(convs) != 1 || convs[0].ID != conv.ID {
			t.Fatalf("conversations for %s: %v", user, convs)
		}
	}

	// outsiders are locked out
	if rr := call(t, h, "POST", "/v1/users", "", map[string]string{"id": "mallory", "name": "Mallory"}); rr.Code != http.StatusCreated {
		t.Fatalf("create mallory: %d", rr.Code)
	}
	if rr := call(t, h, "GET", "/v1/conversations/"+conv.ID+"/messages", "mallory", nil); rr.Code != http.StatusForbidden {
		t.Fatalf("non-participant read: %d", rr.Code)
	}
	if rr := call(t, h, "POST", "/v1/conversations/"+conv.ID+"/messages", "mallory", map[string]string{"body": "hi"}); rr.Code != http.StatusForbidden {
		t.Fatalf("non-participant send: %d", rr.Code)
	}

	// send and read back
	if rr := call(t, h, "POST", "/v1/conversations/"+conv.ID+"/messages", "alice", map[string]string{"body": "hello bob"}); rr.Code != http.StatusAccepted {
		t.Fatalf("send: %d %s", rr.Code, rr.Body.String())
	}
	if rr := call(t, h, "POST", "/v1/conversations/"+conv.ID+"/messages", "alice", map[string]string{"body": "  "}); rr.Code != http.StatusBadRequest {
		t.Fatalf("blank send: %d", rr.Code)
	}

	rr = call(t, h, "GET", "/v1/conversations/"+conv.ID+"/messages?page=0", "bob", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list messages: %d %s", rr.Code, rr.Body.String())
	}
	page := decode[struct {
		Messages []models.Message `json:"messages"`
		HasMore  bool             `json:"has_more"`
	}](t, rr)
	if len(page.Messages) != 1 || page.Messages[0].Body != "hello bob" || page.Messages[0].SenderName != "Alice" {
		t.Fatalf("page: %+v", page)
	}
	if page.HasMore {
		t.Fatal("has_more true with a single message")
	}
	msgID := page.Messages[0].ID

	// edits are authorship-scoped; a failed edit never reports success
	if rr := call(t, h, "PUT", "/v1/messages/"+msgID, "bob", map[string]string{"body": "tampered"}); rr.Code != http.StatusBadGateway {
		t.Fatalf("non-author edit: %d", rr.Code)
	}
	if rr := call(t, h, "PUT", "/v1/messages/"+msgID, "alice", map[string]string{"body": "hello again"}); rr.Code != http.StatusOK {
		t.Fatalf("author edit: %d %s", rr.Code, rr.Body.String())
	}
	if rr := call(t, h, "DELETE", "/v1/messages/"+msgID, "bob", nil); rr.Code != http.StatusBadGateway {
		t.Fatalf("non-author delete: %d", rr.Code)
	}
	if rr := call(t, h, "DELETE", "/v1/messages/"+msgID, "alice", nil); rr.Code != http.StatusOK {
		t.Fatalf("author delete: %d", rr.Code)
	}

	rr = call(t, h, "GET", "/v1/conversations/"+conv.ID+"/messages", "alice", nil)
	page = decode[struct {
		Messages []models.Message `json:"messages"`
		HasMore  bool             `json:"has_more"`
	}](t, rr)
	if len(page.Messages) != 0 {
		t.Fatalf("messages after delete: %+v", page.Messages)
	}
}

func TestIdentityRequired(t *testing.T) {
	h := newTestRouter(t)
	paths := []struct{ method, path string }{
		{"GET", "/v1/conversations"},
		{"GET", "/v1/friend-requests"},
		{"POST", "/v1/friend-requests"},
		{"GET", "/v1/conversations/c1/messages"},
		{"GET", "/v1/conversations/c1/events"},
	}
	for _, p := range paths {
		if rr := call(t, h, p.method, p.path, "", nil); rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s without identity: %d", p.method, p.path, rr.Code)
		}
	}
}

func TestEventsRejectsNonParticipant(t *testing.T) {
	h := newTestRouter(t)
	if rr := call(t, h, "POST", "/v1/users", "", map[string]string{"id": "alice", "name": "Alice"}); rr.Code != http.StatusCreated {
		t.Fatalf("create user: %d", rr.Code)
	}
	if rr := call(t, h, "GET", "/v1/conversations/nope/events", "alice", nil); rr.Code != http.StatusForbidden {
		t.Fatalf("events for non-participant: %d", rr.Code)
	}
}
