// Package ai selects the assistant's chat completer and provides the offline fallback
package ai

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/alchemorsel/kitchen/internal/domain/ai"
	"github.com/alchemorsel/kitchen/internal/infrastructure/ai/ollama"
	"github.com/alchemorsel/kitchen/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"go.uber.org/zap"
)

// OfflineModel is reported for replies produced without a provider
const OfflineModel = "offline"

// NewChatCompleter builds the configured provider wrapped with the offline
// fallback. The openai provider without an API key is offline only.
func NewChatCompleter(cfg *config.AIConfig, logger *zap.Logger) outbound.ChatCompleter {
	logger = logger.Named("ai")
	offline := NewOfflineCompleter()

	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			logger.Warn("No AI API key configured, assistant replies are offline")
			return offline
		}
		return NewFallbackCompleter(openai.NewClient(cfg, logger), offline, logger)
	case "ollama":
		return NewFallbackCompleter(ollama.NewClient(cfg, logger), offline, logger)
	default:
		logger.Info("AI provider disabled, assistant replies are offline", zap.String("provider", cfg.Provider))
		return offline
	}
}

// FallbackCompleter answers from the fallback when the primary provider fails
type FallbackCompleter struct {
	primary  outbound.ChatCompleter
	fallback outbound.ChatCompleter
	logger   *zap.Logger
}

// NewFallbackCompleter wraps primary with fallback
func NewFallbackCompleter(primary, fallback outbound.ChatCompleter, logger *zap.Logger) *FallbackCompleter {
	return &FallbackCompleter{primary: primary, fallback: fallback, logger: logger}
}

// Complete tries the primary provider first. A cancelled context is not
// masked by the fallback.
func (f *FallbackCompleter) Complete(ctx context.Context, messages []domain.Message) (*outbound.Completion, error) {
	completion, err := f.primary.Complete(ctx, messages)
	if err == nil {
		return completion, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f.logger.Warn("Primary AI provider failed, using fallback", zap.Error(err))
	return f.fallback.Complete(ctx, messages)
}

// OfflineCompleter produces a deterministic reply from the last user turn
type OfflineCompleter struct{}

// NewOfflineCompleter creates the offline completer
func NewOfflineCompleter() *OfflineCompleter {
	return &OfflineCompleter{}
}

// Complete never fails
func (OfflineCompleter) Complete(_ context.Context, messages []domain.Message) (*outbound.Completion, error) {
	var question string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			question = messages[i].Content
			break
		}
	}

	reply := "The cooking assistant is offline right now."
	if topic := topicOf(question); topic != "" {
		reply += fmt.Sprintf(" Meanwhile, try searching the catalog for %q.", topic)
	}

	return &outbound.Completion{Content: reply, Model: OfflineModel, Offline: true}, nil
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "can": true, "do": true, "for": true, "how": true,
	"i": true, "is": true, "it": true, "make": true, "me": true, "my": true, "of": true,
	"should": true, "the": true, "to": true, "what": true, "with": true, "you": true,
}

// topicOf picks the longest non-stop word of the question
func topicOf(question string) string {
	var topic string
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, ".,!?;:'\"()")
		if stopWords[word] || len(word) <= len(topic) {
			continue
		}
		topic = word
	}
	return topic
}
