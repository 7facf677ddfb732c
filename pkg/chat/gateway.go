package chat

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"pairchat/pkg/logger"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
)

var (
	// ErrEmptyBody rejects a send before any store call is made.
	ErrEmptyBody = errors.New("message body is empty")
	// ErrNoEffect is returned when an authorship-scoped write affected
	// zero rows. A caller cannot distinguish "not the author" from a
	// transient failure, and must never be told the operation succeeded.
	ErrNoEffect = errors.New("operation had no effect")
)

// Gateway issues send/edit/delete operations against the store, scoped to
// the acting user. All three are fire-and-forget with respect to local
// state: the canonical list changes only when the resulting feed event
// round-trips, so a failed call leaves the view untouched.
type Gateway struct {
	st store.Store
}

func NewGateway(st store.Store) *Gateway {
	return &Gateway{st: st}
}

// Send inserts a new message. The created message is not returned;
// success shows up as the subsequent live insert event.
func (g *Gateway) Send(conversationID, senderID, body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyBody
	}
	m := models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		TS:             time.Now().UTC().UnixNano(),
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	id, err := g.st.Insert(models.TableMessages, raw)
	if err != nil {
		logger.Warn("send_failed", "conversation", conversationID, "err", err)
		return err
	}
	logger.Info("message_sent", "conversation", conversationID, "id", id)
	return nil
}

// Edit rewrites the body of a message the acting user authored. The
// update is conditioned on both the id and the sender, so an edit by a
// non-author silently matches nothing and comes back as ErrNoEffect.
func (g *Gateway) Edit(messageID, newBody, actingUserID string) error {
	if strings.TrimSpace(newBody) == "" {
		return ErrEmptyBody
	}
	n, err := g.st.Update(models.TableMessages,
		store.Filter{"id": messageID, "sender_id": actingUserID},
		store.Patch{"body": newBody, "edited_ts": time.Now().UTC().UnixNano()},
	)
	if err != nil {
		logger.Warn("edit_failed", "id", messageID, "err", err)
		return err
	}
	if n == 0 {
		logger.Warn("edit_no_effect", "id", messageID, "user", actingUserID)
		return ErrNoEffect
	}
	return nil
}

// Delete removes a message the acting user authored, with the same
// authorship scoping as Edit.
func (g *Gateway) Delete(messageID, actingUserID string) error {
	n, err := g.st.Delete(models.TableMessages,
		store.Filter{"id": messageID, "sender_id": actingUserID},
	)
	if err != nil {
		logger.Warn("delete_failed", "id", messageID, "err", err)
		return err
	}
	if n == 0 {
		logger.Warn("delete_no_effect", "id", messageID, "user", actingUserID)
		return ErrNoEffect
	}
	return nil
}
