package chat

import (
	"encoding/json"

	"pairchat/pkg/logger"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
)

// Sink consumes normalized message events for one conversation. The
// engine satisfies it; the SSE stream uses its own implementation.
type Sink interface {
	ApplyInsert(conversationID string, m models.Message) bool
	ApplyUpdate(conversationID, id, body string, editedTS int64) bool
	ApplyDelete(conversationID, id string) bool
}

// Adapter subscribes to the store's change feed scoped to one
// conversation and normalizes raw change records into message events.
// Insert payloads carry only foreign-key identities, so the adapter
// resolves the sender's display identity before emitting; when that
// lookup fails the event is suppressed and logged rather than delivered
// incomplete. Events reach the sink in feed delivery order.
type Adapter struct {
	convID string
	st     store.Store
	sink   Sink
	sub    *store.Subscription
}

// OpenAdapter registers the conversation-scoped subscription.
func OpenAdapter(st store.Store, conversationID string, sink Sink) (*Adapter, error) {
	a := &Adapter{convID: conversationID, st: st, sink: sink}
	sub, err := st.Subscribe(models.TableMessages,
		store.Filter{"conversation_id": conversationID},
		store.ChangeCallbacks{
			OnInsert: a.onInsert,
			OnUpdate: a.onUpdate,
			OnDelete: a.onDelete,
		})
	if err != nil {
		return nil, err
	}
	a.sub = sub
	return a, nil
}

// Close tears down the feed subscription. Idempotent; safe to call on an
// already-closed adapter.
func (a *Adapter) Close() {
	if a == nil {
		return
	}
	a.sub.Close()
}

func (a *Adapter) onInsert(row []byte) {
	var m models.Message
	if err := json.Unmarshal(row, &m); err != nil {
		logger.Warn("feed_insert_bad_row", "conversation", a.convID, "err", err)
		return
	}
	raw, err := a.st.GetByID(models.TableUsers, m.SenderID)
	if err != nil {
		// incomplete event: drop it instead of showing a nameless sender
		logger.Warn("feed_insert_suppressed", "conversation", a.convID, "id", m.ID, "sender", m.SenderID, "err", err)
		return
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		logger.Warn("feed_insert_suppressed", "conversation", a.convID, "id", m.ID, "err", err)
		return
	}
	m.SenderName = u.Name
	a.sink.ApplyInsert(a.convID, m)
}

func (a *Adapter) onUpdate(row []byte) {
	var m models.Message
	if err := json.Unmarshal(row, &m); err != nil {
		logger.Warn("feed_update_bad_row", "conversation", a.convID, "err", err)
		return
	}
	a.sink.ApplyUpdate(a.convID, m.ID, m.Body, m.EditedTS)
}

func (a *Adapter) onDelete(id string) {
	a.sink.ApplyDelete(a.convID, id)
}
