package chat

import (
	"sync"

	"pairchat/pkg/logger"
	"pairchat/pkg/models"
)

// ChangeKind describes how the canonical list moved.
type ChangeKind int

const (
	ChangeReplace ChangeKind = iota
	ChangePrepend
	ChangeAppend
	ChangeUpdate
	ChangeRemove
)

// Position tells the view what to do with its scroll position after a
// change. Replacing the list and appending fresh messages jump to the
// latest message; prepending older pages must keep the user's anchor so
// the view does not appear to move.
type Position int

const (
	PositionNone Position = iota
	PositionLatest
	PositionAnchor
)

// Change is emitted to the engine's observer after every applied
// operation. Count carries the number of messages involved (prepends need
// it to preserve the anchor).
type Change struct {
	Kind     ChangeKind
	Position Position
	Count    int
}

// Engine owns the canonical message list for exactly one conversation.
// The list is ascending by (ts, id) and free of duplicate ids; page
// loads, live events and local edit state all reconcile through it and
// nothing else mutates it. Every apply operation carries the conversation
// id it was produced for and is dropped when the engine has since been
// re-keyed to another conversation.
type Engine struct {
	mu        sync.Mutex
	convID    string
	msgs      []models.Message
	editingID string
	hasMore   bool
	nextPage  int
	onChange  func(Change)
}

// NewEngine returns an empty engine. onChange may be nil.
func NewEngine(onChange func(Change)) *Engine {
	return &Engine{onChange: onChange}
}

// Reset re-keys the engine to a new conversation, discarding the list,
// the edit state and the pagination cursor.
func (e *Engine) Reset(conversationID string) {
	e.mu.Lock()
	e.convID = conversationID
	e.msgs = nil
	e.editingID = ""
	e.hasMore = false
	e.nextPage = 0
	e.mu.Unlock()
}

func (e *Engine) ConversationID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.convID
}

func (e *Engine) HasMore() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasMore
}

// NextPage is the index the next backward page load should request.
func (e *Engine) NextPage() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nextPage
}

func (e *Engine) EditingID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editingID
}

// Messages returns a snapshot of the canonical list with the editing flag
// materialized onto the message carrying it.
func (e *Engine) Messages() []models.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Message, len(e.msgs))
	copy(out, e.msgs)
	if e.editingID != "" {
		for i := range out {
			if out[i].ID == e.editingID {
				out[i].Editing = true
				break
			}
		}
	}
	return out
}

func (e *Engine) notify(c Change) {
	if e.onChange != nil {
		e.onChange(c)
	}
}

func (e *Engine) stale(conversationID string) bool {
	return e.convID != conversationID
}

func (e *Engine) contains(id string) bool {
	for i := range e.msgs {
		if e.msgs[i].ID == id {
			return true
		}
	}
	return false
}

// ApplyInitialPage replaces the whole list with page zero's result and
// resets the pagination cursor. This is the only operation that may jump
// the view to the latest message from a load. Returns false when the
// result arrived for a conversation the engine no longer shows.
func (e *Engine) ApplyInitialPage(conversationID string, msgs []models.Message, hasMore bool) bool {
	e.mu.Lock()
	if e.stale(conversationID) {
		e.mu.Unlock()
		staleDrops.Inc()
		return false
	}
	e.msgs = append([]models.Message(nil), msgs...)
	e.editingID = ""
	e.hasMore = hasMore
	e.nextPage = 1
	n := len(e.msgs)
	e.mu.Unlock()

	e.notify(Change{Kind: ChangeReplace, Position: PositionLatest, Count: n})
	return true
}

// PrependPage merges an older page onto the front of the list. Ids the
// list already holds are dropped, keeping the earliest-discovered copy; a
// live insert can race the paginated window and this dedupe is the
// correctness mechanism, not sequencing. The view's scroll anchor must be
// preserved, so the change carries PositionAnchor and never a jump.
func (e *Engine) PrependPage(conversationID string, msgs []models.Message, hasMore bool) bool {
	e.mu.Lock()
	if e.stale(conversationID) {
		e.mu.Unlock()
		staleDrops.Inc()
		return false
	}
	fresh := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if e.contains(m.ID) {
			duplicatesDropped.Inc()
			logger.Debug("prepend_duplicate_dropped", "conversation", conversationID, "id", m.ID)
			continue
		}
		fresh = append(fresh, m)
	}
	e.msgs = append(fresh, e.msgs...)
	e.hasMore = hasMore
	e.nextPage++
	n := len(fresh)
	e.mu.Unlock()

	e.notify(Change{Kind: ChangePrepend, Position: PositionAnchor, Count: n})
	return true
}

// ApplyInsert appends a live-inserted message. A duplicate id (the page
// load already delivered it) is suppressed without any positioning side
// effect; only a real append jumps to latest. An insert whose timestamp
// precedes the current tail is accepted at face value and appended
// positionally; the anomaly is logged, not repaired.
func (e *Engine) ApplyInsert(conversationID string, m models.Message) bool {
	e.mu.Lock()
	if e.stale(conversationID) {
		e.mu.Unlock()
		staleDrops.Inc()
		return false
	}
	if e.contains(m.ID) {
		e.mu.Unlock()
		duplicatesDropped.Inc()
		logger.Debug("insert_duplicate_dropped", "conversation", conversationID, "id", m.ID)
		return false
	}
	if n := len(e.msgs); n > 0 && m.TS < e.msgs[n-1].TS {
		outOfOrderInserts.Inc()
		logger.Warn("insert_out_of_order", "conversation", conversationID, "id", m.ID, "ts", m.TS, "tail_ts", e.msgs[n-1].TS)
	}
	e.msgs = append(e.msgs, m)
	e.mu.Unlock()

	e.notify(Change{Kind: ChangeAppend, Position: PositionLatest, Count: 1})
	return true
}

// ApplyUpdate replaces the content of the identified message. The
// authoritative update always wins: an unsaved local edit-in-progress on
// that id is superseded, so the editing flag is cleared.
func (e *Engine) ApplyUpdate(conversationID, id, body string, editedTS int64) bool {
	e.mu.Lock()
	if e.stale(conversationID) {
		e.mu.Unlock()
		staleDrops.Inc()
		return false
	}
	found := false
	for i := range e.msgs {
		if e.msgs[i].ID == id {
			e.msgs[i].Body = body
			e.msgs[i].EditedTS = editedTS
			found = true
			break
		}
	}
	if found && e.editingID == id {
		e.editingID = ""
	}
	e.mu.Unlock()

	if !found {
		logger.Debug("update_unknown_id", "conversation", conversationID, "id", id)
		return false
	}
	e.notify(Change{Kind: ChangeUpdate, Position: PositionNone, Count: 1})
	return true
}

// ApplyDelete removes the identified message. No positioning side effect.
func (e *Engine) ApplyDelete(conversationID, id string) bool {
	e.mu.Lock()
	if e.stale(conversationID) {
		e.mu.Unlock()
		staleDrops.Inc()
		return false
	}
	idx := -1
	for i := range e.msgs {
		if e.msgs[i].ID == id {
			idx = i
			break
		}
	}
	if idx >= 0 {
		e.msgs = append(e.msgs[:idx], e.msgs[idx+1:]...)
		if e.editingID == id {
			e.editingID = ""
		}
	}
	e.mu.Unlock()

	if idx < 0 {
		return false
	}
	e.notify(Change{Kind: ChangeRemove, Position: PositionNone, Count: 1})
	return true
}

// StartEdit marks the identified message as being edited, clearing the
// flag from any other message first; at most one message is ever in
// editing state. Purely local, no network effect.
func (e *Engine) StartEdit(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.contains(id) {
		return false
	}
	e.editingID = id
	return true
}

// CancelEdit clears the editing flag and discards the pending edit.
func (e *Engine) CancelEdit() {
	e.mu.Lock()
	e.editingID = ""
	e.mu.Unlock()
}
