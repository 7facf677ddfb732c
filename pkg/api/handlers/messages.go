package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"pairchat/pkg/chat"
	"pairchat/pkg/utils"
)

// EditMessage rewrites a message body. The write is scoped to the acting
// user's authorship; a zero-row match never reports success, so editing
// someone else's message and a transient failure look the same to the
// caller.
func (h *Handlers) EditMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	var body struct {
		Body string `json:"body"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := h.gateway.Edit(id, body.Body, user); err != nil {
		writeGatewayErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteMessage removes a message, with the same authorship scoping as
// EditMessage.
func (h *Handlers) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.gateway.Delete(id, user); err != nil {
		writeGatewayErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func writeGatewayErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyBody):
		utils.JSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrNoEffect):
		utils.JSONError(w, http.StatusBadGateway, "operation failed")
	default:
		utils.JSONError(w, http.StatusBadGateway, "operation failed")
	}
}
