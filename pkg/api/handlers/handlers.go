package handlers

import (
	"encoding/json"
	"net/http"

	"pairchat/pkg/auth"
	"pairchat/pkg/chat"
	"pairchat/pkg/config"
	"pairchat/pkg/friends"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
	"pairchat/pkg/utils"
)

// Handlers bundles the request handlers with their backing services.
type Handlers struct {
	st      store.TxStore
	cfg     *config.Config
	pager   *chat.Pager
	gateway *chat.Gateway
	friends *friends.Service
}

func New(st store.TxStore, cfg *config.Config) *Handlers {
	return &Handlers{
		st:      st,
		cfg:     cfg,
		pager:   chat.NewPager(st),
		gateway: chat.NewGateway(st),
		friends: friends.NewService(st),
	}
}

// identity extracts the acting user from the request context. Handlers
// that mutate or read user-scoped data refuse anonymous callers.
func identity(r *http.Request) (string, bool) {
	id := auth.IdentityFromContext(r.Context())
	return id, id != ""
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := identity(r)
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "missing X-Identity header")
	}
	return id, ok
}

// isParticipant reports whether the user belongs to the conversation.
func (h *Handlers) isParticipant(conversationID, userID string) (bool, error) {
	_, n, err := h.st.Query(models.TableParticipants,
		store.Filter{"conversation_id": conversationID, "user_id": userID},
		store.Order{Field: "id"}, 0, 0)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
