package chat

import (
	"encoding/json"

	"github.com/pkg/errors"

	"pairchat/pkg/logger"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
)

// PageSize is the fixed number of messages per historical page.
const PageSize = 20

// Pager loads bounded windows of a conversation's history. Page zero is
// the most recent slice: the store query runs descending by (ts, id) so
// the window math counts back from the newest message, then the slice is
// reversed locally to hand out ascending order.
type Pager struct {
	st store.Store
}

func NewPager(st store.Store) *Pager {
	return &Pager{st: st}
}

// LoadPage fetches page pageIndex of the conversation. Pages are
// all-or-nothing: any query error propagates and no partial result is
// returned. hasMore reports whether older messages remain beyond this
// window.
func (p *Pager) LoadPage(conversationID string, pageIndex int) ([]models.Message, bool, error) {
	start := pageIndex * PageSize
	end := start + PageSize - 1
	rows, total, err := p.st.Query(
		models.TableMessages,
		store.Filter{"conversation_id": conversationID},
		store.Order{Field: "ts", Desc: true},
		start, end,
	)
	if err != nil {
		return nil, false, errors.Wrap(err, "pager.LoadPage")
	}

	msgs := make([]models.Message, 0, len(rows))
	for _, raw := range rows {
		var m models.Message
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, false, errors.Wrap(err, "pager.LoadPage: bad row")
		}
		msgs = append(msgs, m)
	}
	// reverse into ascending order
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	p.resolveSenders(msgs)

	hasMore := start+len(msgs) < total
	pagesLoaded.Inc()
	logger.Debug("page_loaded", "conversation", conversationID, "page", pageIndex, "count", len(msgs), "total", total, "has_more", hasMore)
	return msgs, hasMore, nil
}

// resolveSenders fills in display names. Two participants means at most
// two lookups per page; a failed lookup leaves the name empty rather than
// failing the page.
func (p *Pager) resolveSenders(msgs []models.Message) {
	names := map[string]string{}
	for i := range msgs {
		id := msgs[i].SenderID
		name, ok := names[id]
		if !ok {
			raw, err := p.st.GetByID(models.TableUsers, id)
			if err != nil {
				logger.Warn("sender_lookup_failed", "user", id, "err", err)
				names[id] = ""
				continue
			}
			var u models.User
			if err := json.Unmarshal(raw, &u); err == nil {
				name = u.Name
			}
			names[id] = name
		}
		msgs[i].SenderName = name
	}
}
