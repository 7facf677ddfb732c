package friends

import (
	"encoding/json"
	"errors"
	"time"

	"pairchat/pkg/logger"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
	"pairchat/pkg/utils"
)

var (
	ErrSelfRequest     = errors.New("cannot send a friend request to yourself")
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicate       = errors.New("a pending request between these users already exists")
	ErrRequestNotFound = errors.New("friend request not found")
	// ErrAlreadyHandled covers both terminal states; accepted and
	// rejected requests never transition again.
	ErrAlreadyHandled = errors.New("friend request already handled")
)

// Service runs the friend-request workflow. Accepting a request flips its
// status and provisions the conversation with both participants in a
// single atomic store batch; if any piece cannot land, nothing does.
type Service struct {
	st store.TxStore
}

func NewService(st store.TxStore) *Service {
	return &Service{st: st}
}

// Create records a pending request from sender to receiver. Both users
// must exist and only one pending request may exist per direction.
func (s *Service) Create(senderID, receiverID string) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, ErrSelfRequest
	}
	for _, id := range []string{senderID, receiverID} {
		if _, err := s.st.GetByID(models.TableUsers, id); err != nil {
			return nil, ErrUserNotFound
		}
	}
	_, n, err := s.st.Query(models.TableFriendRequests,
		store.Filter{"sender_id": senderID, "receiver_id": receiverID, "status": models.RequestPending},
		store.Order{Field: "created_ts"}, 0, 0)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrDuplicate
	}

	req := models.FriendRequest{
		ID:         utils.GenRequestID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.RequestPending,
		CreatedTS:  time.Now().UTC().UnixNano(),
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if _, err := s.st.Insert(models.TableFriendRequests, raw); err != nil {
		return nil, err
	}
	logger.Info("friend_request_created", "id", req.ID, "sender", senderID, "receiver", receiverID)
	return &req, nil
}

// Accept moves a pending request to accepted and creates exactly one
// conversation with both parties as participants. The status update is
// conditional on the request still being pending, so a concurrent accept
// or reject makes the whole batch fail instead of double-provisioning.
func (s *Service) Accept(requestID string) (*models.Conversation, error) {
	req, err := s.get(requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, ErrAlreadyHandled
	}

	now := time.Now().UTC().UnixNano()
	conv := models.Conversation{ID: utils.GenConversationID(), CreatedTS: now}
	convRaw, err := json.Marshal(conv)
	if err != nil {
		return nil, err
	}
	ops := []store.Op{
		{
			Kind:   store.OpUpdate,
			Table:  models.TableFriendRequests,
			Filter: store.Filter{"id": req.ID, "status": models.RequestPending},
			Patch:  store.Patch{"status": models.RequestAccepted, "handled_ts": now},
		},
		{Kind: store.OpInsert, Table: models.TableConversations, Row: convRaw},
	}
	for _, uid := range []string{req.SenderID, req.ReceiverID} {
		p := models.Participant{ID: utils.GenID(), ConversationID: conv.ID, UserID: uid}
		raw, merr := json.Marshal(p)
		if merr != nil {
			return nil, merr
		}
		ops = append(ops, store.Op{Kind: store.OpInsert, Table: models.TableParticipants, Row: raw})
	}

	if err := s.st.Atomic(ops); err != nil {
		if errors.Is(err, store.ErrNoMatch) {
			return nil, ErrAlreadyHandled
		}
		logger.Error("friend_request_accept_failed", "id", requestID, "err", err)
		return nil, err
	}
	logger.Info("friend_request_accepted", "id", requestID, "conversation", conv.ID)
	return &conv, nil
}

// Reject moves a pending request to rejected. Terminal; no side effects
// beyond the status change.
func (s *Service) Reject(requestID string) error {
	n, err := s.st.Update(models.TableFriendRequests,
		store.Filter{"id": requestID, "status": models.RequestPending},
		store.Patch{"status": models.RequestRejected, "handled_ts": time.Now().UTC().UnixNano()},
	)
	if err != nil {
		return err
	}
	if n == 0 {
		if _, gerr := s.get(requestID); gerr != nil {
			return gerr
		}
		return ErrAlreadyHandled
	}
	logger.Info("friend_request_rejected", "id", requestID)
	return nil
}

// ListForUser returns requests the user sent or received, newest first.
func (s *Service) ListForUser(userID string) ([]models.FriendRequest, error) {
	var out []models.FriendRequest
	for _, f := range []store.Filter{{"sender_id": userID}, {"receiver_id": userID}} {
		rows, _, err := s.st.Query(models.TableFriendRequests, f,
			store.Order{Field: "created_ts", Desc: true}, 0, 1<<20)
		if err != nil {
			return nil, err
		}
		for _, raw := range rows {
			var r models.FriendRequest
			if err := json.Unmarshal(raw, &r); err == nil {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// Get fetches a single request by id.
func (s *Service) Get(requestID string) (*models.FriendRequest, error) {
	return s.get(requestID)
}

func (s *Service) get(requestID string) (*models.FriendRequest, error) {
	raw, err := s.st.GetByID(models.TableFriendRequests, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	var req models.FriendRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
