package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/valyala/bytebufferpool"

	"pairchat/pkg/chat"
	"pairchat/pkg/logger"
	"pairchat/pkg/models"
	"pairchat/pkg/utils"
)

// streamEvent is one frame on the live event stream.
type streamEvent struct {
	Kind     string          `json:"kind"`
	Message  *models.Message `json:"message,omitempty"`
	ID       string          `json:"id,omitempty"`
	Body     string          `json:"body,omitempty"`
	EditedTS int64           `json:"edited_ts,omitempty"`
}

// streamSink forwards conversation events onto a channel drained by the
// HTTP writer goroutine. Events arrive on the store's write path, so the
// push must never block: a full buffer drops the event and the client is
// expected to reconcile by reloading.
type streamSink struct {
	convID string
	ch     chan streamEvent
}

func (s *streamSink) push(ev streamEvent) bool {
	select {
	case s.ch <- ev:
		return true
	default:
		logger.Warn("stream_event_dropped", "conversation", s.convID, "kind", ev.Kind)
		return false
	}
}

func (s *streamSink) ApplyInsert(conversationID string, m models.Message) bool {
	return s.push(streamEvent{Kind: "insert", Message: &m})
}

func (s *streamSink) ApplyUpdate(conversationID, id, body string, editedTS int64) bool {
	return s.push(streamEvent{Kind: "update", ID: id, Body: body, EditedTS: editedTS})
}

func (s *streamSink) ApplyDelete(conversationID, id string) bool {
	return s.push(streamEvent{Kind: "delete", ID: id})
}

// StreamEvents serves the conversation's live change feed as SSE. Each
// insert, update and delete committed to the store after the stream opens
// is delivered in commit order. Disconnecting tears down the feed
// subscription.
func (h *Handlers) StreamEvents(w http.ResponseWriter, r *http.Request) {
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
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.JSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sink := &streamSink{convID: convID, ch: make(chan streamEvent, 256)}
	adapter, err := chat.OpenAdapter(h.st, convID, sink)
	if err != nil {
		logger.Error("stream_subscribe_failed", "conversation", convID, "err", err)
		utils.JSONError(w, http.StatusInternalServerError, "subscribe failed")
		return
	}
	defer adapter.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger.Info("stream_opened", "conversation", convID, "user", user)
	maxFrame := uint64(h.cfg.Feed.MaxEventBytes)

	for {
		select {
		case <-r.Context().Done():
			logger.Info("stream_closed", "conversation", convID, "user", user)
			return
		case ev := <-sink.ch:
			if !h.writeFrame(w, flusher, ev, maxFrame) {
				return
			}
		}
	}
}

// writeFrame encodes one SSE frame. Frames above the configured cap are
// dropped, not truncated.
func (h *Handlers) writeFrame(w http.ResponseWriter, flusher http.Flusher, ev streamEvent, maxFrame uint64) bool {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Warn("stream_encode_failed", "err", err)
		return true
	}
	if maxFrame > 0 && uint64(len(payload)) > maxFrame {
		logger.Warn("stream_frame_oversize", "kind", ev.Kind, "bytes", len(payload))
		return true
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.WriteString("event: ")
	_, _ = buf.WriteString(ev.Kind)
	_, _ = buf.WriteString("\ndata: ")
	_, _ = buf.Write(payload)
	_, _ = buf.WriteString("\n\n")

	if _, err := w.Write(buf.B); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
