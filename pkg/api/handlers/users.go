package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"pairchat/pkg/logger"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
	"pairchat/pkg/utils"
	"pairchat/pkg/validation"
)

// CreateUser registers a user. The id may be supplied by the caller (so
// identities stay stable across devices); otherwise the store assigns
// one.
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if !decodeBody(w, r, &u) {
		return
	}
	if err := validation.ValidateUser(u); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	u.CreatedTS = time.Now().UTC().UnixNano()
	raw, err := json.Marshal(u)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "encode failed")
		return
	}
	id, err := h.st.Insert(models.TableUsers, raw)
	if err != nil {
		if errors.Is(err, store.ErrExists) {
			utils.JSONError(w, http.StatusConflict, "user already exists")
			return
		}
		logger.Error("user_create_failed", "err", err)
		utils.JSONError(w, http.StatusInternalServerError, "create failed")
		return
	}
	u.ID = id
	logger.Info("user_created", "id", id)
	_ = utils.JSONWrite(w, http.StatusCreated, u)
}

// ListUsers returns every registered user, for picking friends.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	rows, _, err := h.st.Query(models.TableUsers, nil, store.Order{Field: "name"}, 0, 1<<20)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "list failed")
		return
	}
	users := []models.User{}
	for _, raw := range rows {
		var u models.User
		if err := json.Unmarshal(raw, &u); err == nil {
			users = append(users, u)
		}
	}
	_ = utils.JSONWrite(w, http.StatusOK, users)
}

// GetUser returns a user's public profile.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	raw, err := h.st.GetByID(models.TableUsers, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "user not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "decode failed")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, u)
}
