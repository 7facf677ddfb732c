package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pairchat/pkg/chat"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
	"pairchat/pkg/utils"
	"pairchat/pkg/validation"
)

// ListConversations returns the conversations the acting user belongs to.
func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	user, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	rows, _, err := h.st.Query(models.TableParticipants,
		store.Filter{"user_id": user},
		store.Order{Field: "conversation_id"}, 0, 1<<20)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "list failed")
		return
	}
	convs := []models.Conversation{}
	for _, raw := range rows {
		var p models.Participant
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		craw, err := h.st.GetByID(models.TableConversations, p.ConversationID)
		if err != nil {
			continue
		}
		var c models.Conversation
		if err := json.Unmarshal(craw, &c); err == nil {
			convs = append(convs, c)
		}
	}
	_ = utils.JSONWrite(w, http.StatusOK, convs)
}

// ListMessages returns one fixed-size page of a conversation's history in
// ascending timestamp order, plus whether older pages remain. Page zero
// is the newest window.
func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	convID := mux.Vars(r)["id"]
	member, err := h.isParticipant(convID, user)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if !member {
		utils.JSONError(w, http.StatusForbidden, "not a participant")
		return
	}

	page := 0
	if s := r.URL.Query().Get("page"); s != "" {
		n, perr := strconv.Atoi(s)
		if perr != nil || n < 0 {
			utils.JSONError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}

	msgs, hasMore, err := h.pager.LoadPage(convID, page)
	if err != nil {
		utils.JSONError(w, http.StatusBadGateway, "page load failed")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{
		"messages": msgs,
		"page":     page,
		"has_more": hasMore,
	})
}

// SendMessage inserts a new message into the conversation. The response
// carries no message payload: delivery is observed on the event stream.
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	convID := mux.Vars(r)["id"]
	member, err := h.isParticipant(convID, user)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if !member {
		utils.JSONError(w, http.StatusForbidden, "not a participant")
		return
	}

	var body struct {
		Body string `json:"body"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := validation.ValidateMessage(models.Message{
		ConversationID: convID,
		SenderID:       user,
		Body:           body.Body,
	}); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.gateway.Send(convID, user, body.Body); err != nil {
		if err == chat.ErrEmptyBody {
			utils.JSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.JSONError(w, http.StatusBadGateway, "send failed")
		return
	}
	_ = utils.JSONWrite(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
