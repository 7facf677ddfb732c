package validation

import (
	"strings"
	"testing"

	"pairchat/pkg/models"
)

func TestValidateMessage(t *testing.T) {
	good := models.Message{ConversationID: "c1", SenderID: "alice", Body: "hi"}
	if err := ValidateMessage(good); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}

	cases := map[string]models.Message{
		"empty body":          {ConversationID: "c1", SenderID: "alice", Body: "  "},
		"no conversation":     {SenderID: "alice", Body: "hi"},
		"no sender":           {ConversationID: "c1", Body: "hi"},
		"body over the limit": {ConversationID: "c1", SenderID: "alice", Body: strings.Repeat("x", 5000)},
	}
	for name, m := range cases {
		if err := ValidateMessage(m); err == nil {
			t.Fatalf("%s: accepted", name)
		}
	}
}

func TestValidateUser(t *testing.T) {
	if err := ValidateUser(models.User{Name: "Alice"}); err != nil {
		t.Fatalf("valid user rejected: %v", err)
	}
	if err := ValidateUser(models.User{Name: " "}); err == nil {
		t.Fatal("blank name accepted")
	}
	if err := ValidateUser(models.User{Name: strings.Repeat("x", 200)}); err == nil {
		t.Fatal("oversized name accepted")
	}
}
