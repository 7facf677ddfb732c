package models

// Store table names.
const (
	TableUsers          = "users"
	TableFriendRequests = "friend_requests"
	TableConversations  = "conversations"
	TableParticipants   = "participants"
	TableMessages       = "messages"
)

// Message is one chat message inside a conversation. TS is the creation
// timestamp in nanoseconds and is the authoritative ordering key; ties are
// broken by ID. Editing is view state owned by the reconciliation engine
// and is never persisted.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	// SenderName is the resolved display identity of the sender. It is
	// filled in by lookups at read time, not stored with the row.
	SenderName string `json:"sender_name,omitempty"`
	Body       string `json:"body"`
	TS         int64  `json:"ts"`
	EditedTS   int64  `json:"edited_ts,omitempty"`
	Editing    bool   `json:"-"`
}

// Conversation is a two-party chat spawned by an accepted friend request.
type Conversation struct {
	ID        string `json:"id"`
	CreatedTS int64  `json:"created_ts"`
}

// Participant links one user to one conversation. Exactly two rows exist
// per conversation and they are written at creation time.
type Participant struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

// Friend request status values. Pending may move to accepted or rejected;
// both of those are terminal.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

type FriendRequest struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Status     string `json:"status"`
	CreatedTS  int64  `json:"created_ts"`
	HandledTS  int64  `json:"handled_ts,omitempty"`
}

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedTS int64  `json:"created_ts"`
}
