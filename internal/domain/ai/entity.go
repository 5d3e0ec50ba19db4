// Package ai defines the assistant conversation kept per user
package ai

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength bounds a single user turn, in runes
const MaxMessageLength = 4000

// Role of a message author
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var (
	ErrEmptyMessage   = errors.New("message is required")
	ErrMessageTooLong = errors.New("message is too long")
)

// Message is one turn of the conversation
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserMessage validates and trims a user turn
func NewUserMessage(content string) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return Message{}, ErrMessageTooLong
	}
	return Message{Role: RoleUser, Content: content, CreatedAt: time.Now().UTC()}, nil
}

// Conversation is a bounded window of recent messages
type Conversation struct {
	Messages []Message `json:"messages"`
}

// Append adds a message and drops the oldest ones beyond limit
func (c *Conversation) Append(m Message, limit int) {
	c.Messages = append(c.Messages, m)
	c.Trim(limit)
}

// Trim keeps only the last limit messages. A limit <= 0 keeps everything.
func (c *Conversation) Trim(limit int) {
	if limit <= 0 || len(c.Messages) <= limit {
		return
	}
	c.Messages = append([]Message(nil), c.Messages[len(c.Messages)-limit:]...)
}

// Len returns the number of retained messages
func (c *Conversation) Len() int {
	return len(c.Messages)
}
