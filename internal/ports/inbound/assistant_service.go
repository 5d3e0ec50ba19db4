package inbound

import (
	"context"

	"github.com/google/uuid"
)

// AssistantService is the per-user cooking chat
type AssistantService interface {
	Chat(ctx context.Context, userID uuid.UUID, message string) (*ChatReply, error)
	ClearHistory(ctx context.Context, userID uuid.UUID) error
}

// ChatReply is the assistant's answer plus the size of the retained history
type ChatReply struct {
	Reply         string `json:"reply"`
	HistoryLength int    `json:"history_length"`
	Model         string `json:"model"`
	Offline       bool   `json:"offline"`
}
