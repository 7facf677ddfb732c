package utils

import "github.com/google/uuid"

func GenID() string {
	return uuid.NewString()
}

func GenConversationID() string {
	return "conv-" + uuid.NewString()
}

func GenRequestID() string {
	return "freq-" + uuid.NewString()
}
