package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"pairchat/pkg/friends"
	"pairchat/pkg/models"
	"pairchat/pkg/utils"
)

// CreateFriendRequest sends a friend request from the acting user.
func (h *Handlers) CreateFriendRequest(w http.ResponseWriter, r *http.Request) {
	sender, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var body struct {
		ReceiverID string `json:"receiver_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	req, err := h.friends.Create(sender, body.ReceiverID)
	if err != nil {
		switch {
		case errors.Is(err, friends.ErrSelfRequest), errors.Is(err, friends.ErrDuplicate):
			utils.JSONError(w, http.StatusConflict, err.Error())
		case errors.Is(err, friends.ErrUserNotFound):
			utils.JSONError(w, http.StatusNotFound, err.Error())
		default:
			utils.JSONError(w, http.StatusInternalServerError, "create failed")
		}
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, req)
}

// ListFriendRequests returns requests the acting user sent or received.
func (h *Handlers) ListFriendRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	reqs, err := h.friends.ListForUser(user)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "list failed")
		return
	}
	if reqs == nil {
		reqs = []models.FriendRequest{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, reqs)
}

// AcceptFriendRequest accepts a pending request addressed to the acting
// user and returns the conversation it provisions.
func (h *Handlers) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if !h.receiverOf(w, id, user) {
		return
	}
	conv, err := h.friends.Accept(id)
	if err != nil {
		writeFriendErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, conv)
}

// RejectFriendRequest rejects a pending request addressed to the acting
// user.
func (h *Handlers) RejectFriendRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if !h.receiverOf(w, id, user) {
		return
	}
	if err := h.friends.Reject(id); err != nil {
		writeFriendErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// receiverOf verifies the acting user is the request's receiver; only the
// receiver may settle a request.
func (h *Handlers) receiverOf(w http.ResponseWriter, requestID, userID string) bool {
	req, err := h.friends.Get(requestID)
	if err != nil {
		writeFriendErr(w, err)
		return false
	}
	if req.ReceiverID != userID {
		utils.JSONError(w, http.StatusForbidden, "not the receiver of this request")
		return false
	}
	return true
}

func writeFriendErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, friends.ErrRequestNotFound):
		utils.JSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, friends.ErrAlreadyHandled):
		utils.JSONError(w, http.StatusConflict, err.Error())
	default:
		utils.JSONError(w, http.StatusInternalServerError, "request failed")
	}
}
