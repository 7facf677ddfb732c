package chat

import (
	"sync"

	"pairchat/pkg/logger"
)

// Backfill watches the viewport scroll offset and loads the next older
// page when the user reaches the top. Only one page load is ever in
// flight per conversation: concurrent triggers while a load is running
// are ignored, which also keeps pagination responses applying in request
// order.
type Backfill struct {
	eng   *Engine
	pager *Pager

	mu       sync.Mutex
	inFlight bool
}

func NewBackfill(eng *Engine, pager *Pager) *Backfill {
	return &Backfill{eng: eng, pager: pager}
}

// OnScroll reports a new scroll offset. At offset zero (top of the loaded
// window) with more history available it loads the next page and prepends
// it; the engine keeps the scroll anchor stable across the prepend.
// Returns whether a load ran, and its error if it failed.
func (b *Backfill) OnScroll(offset int) (bool, error) {
	if offset != 0 {
		return false, nil
	}
	convID := b.eng.ConversationID()
	if convID == "" || !b.eng.HasMore() {
		return false, nil
	}

	b.mu.Lock()
	if b.inFlight {
		b.mu.Unlock()
		return false, nil
	}
	b.inFlight = true
	page := b.eng.NextPage()
	b.mu.Unlock()

	msgs, hasMore, err := b.pager.LoadPage(convID, page)

	b.mu.Lock()
	b.inFlight = false
	b.mu.Unlock()

	if err != nil {
		logger.Warn("backfill_failed", "conversation", convID, "page", page, "err", err)
		return true, err
	}
	// stale responses are dropped inside the engine
	b.eng.PrependPage(convID, msgs, hasMore)
	return true, nil
}
