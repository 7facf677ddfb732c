package validation

import (
	"errors"
	"fmt"
	"strings"

	"pairchat/pkg/models"
)

// Rules bound incoming message shapes. Zero values disable a rule.
type Rules struct {
	MaxBodyLen int
}

var rules = Rules{MaxBodyLen: 4096}

func SetRules(r Rules) { rules = r }

// ValidateMessage checks the fields a client controls. Identity and
// ordering fields are assigned server-side and are not validated here.
func ValidateMessage(m models.Message) error {
	var errs []string
	if strings.TrimSpace(m.Body) == "" {
		errs = append(errs, "body is required")
	}
	if rules.MaxBodyLen > 0 && len(m.Body) > rules.MaxBodyLen {
		errs = append(errs, fmt.Sprintf("body too long: %d > %d", len(m.Body), rules.MaxBodyLen))
	}
	if m.ConversationID == "" {
		errs = append(errs, "conversation_id is required")
	}
	if m.SenderID == "" {
		errs = append(errs, "sender_id is required")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ValidateUser checks a user registration payload.
func ValidateUser(u models.User) error {
	if strings.TrimSpace(u.Name) == "" {
		return errors.New("name is required")
	}
	if len(u.Name) > 128 {
		return errors.New("name too long")
	}
	return nil
}
