// Package assistant provides the per-user cooking chat
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/ai"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultHistorySize = 10
	DefaultHistoryTTL  = 30 * time.Minute

	DefaultSystemPrompt = "You are a friendly cooking assistant for a recipe discovery site " +
		"focused on African cuisine. Answer briefly and practically."
)

// Options tunes how much conversation is kept and for how long
type Options struct {
	HistorySize  int
	HistoryTTL   time.Duration
	SystemPrompt string
}

func (o Options) withDefaults() Options {
	if o.HistorySize < 1 {
		o.HistorySize = DefaultHistorySize
	}
	if o.HistoryTTL <= 0 {
		o.HistoryTTL = DefaultHistoryTTL
	}
	if o.SystemPrompt == "" {
		o.SystemPrompt = DefaultSystemPrompt
	}
	return o
}

// AssistantService keeps each user's recent turns in the cache and asks the
// completer for the next reply.
type AssistantService struct {
	cache     outbound.CacheRepository
	completer outbound.ChatCompleter
	opts      Options
	logger    *zap.Logger
	tracer    trace.Tracer
}

var _ inbound.AssistantService = (*AssistantService)(nil)

// NewAssistantService creates a new assistant service
func NewAssistantService(
	cache outbound.CacheRepository,
	completer outbound.ChatCompleter,
	opts Options,
	logger *zap.Logger,
) *AssistantService {
	return &AssistantService{
		cache:     cache,
		completer: completer,
		opts:      opts.withDefaults(),
		logger:    logger.Named("assistant-service"),
		tracer:    otel.Tracer("kitchen/application/assistant"),
	}
}

// HistoryKey is the cache key holding a user's conversation
func HistoryKey(userID uuid.UUID) string {
	return "assistant:history:" + userID.String()
}

// Chat appends the message to the user's history, asks for a reply and
// stores both turns with a refreshed TTL.
func (s *AssistantService) Chat(ctx context.Context, userID uuid.UUID, message string) (*inbound.ChatReply, error) {
	ctx, span := s.tracer.Start(ctx, "AssistantService.Chat")
	defer span.End()

	turn, err := ai.NewUserMessage(message)
	if err != nil {
		return nil, fail(span, apperrors.NewValidationError(err.Error()))
	}

	conv, err := s.loadHistory(ctx, userID)
	if err != nil {
		return nil, fail(span, apperrors.NewExternalServiceError("conversation store", err))
	}
	conv.Append(turn, s.opts.HistorySize)

	prompt := make([]ai.Message, 0, conv.Len()+1)
	prompt = append(prompt, ai.Message{Role: ai.RoleSystem, Content: s.opts.SystemPrompt})
	prompt = append(prompt, conv.Messages...)

	completion, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Error("Assistant completion failed", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fail(span, apperrors.NewExternalServiceError("assistant", err))
	}

	conv.Append(ai.Message{
		Role:      ai.RoleAssistant,
		Content:   completion.Content,
		CreatedAt: time.Now().UTC(),
	}, s.opts.HistorySize)

	if err := s.saveHistory(ctx, userID, conv); err != nil {
		return nil, fail(span, apperrors.NewExternalServiceError("conversation store", err))
	}

	span.SetAttributes(
		attribute.String("ai.model", completion.Model),
		attribute.Bool("ai.offline", completion.Offline),
		attribute.Int("history.length", conv.Len()),
	)

	return &inbound.ChatReply{
		Reply:         completion.Content,
		HistoryLength: conv.Len(),
		Model:         completion.Model,
		Offline:       completion.Offline,
	}, nil
}

// ClearHistory forgets the user's conversation
func (s *AssistantService) ClearHistory(ctx context.Context, userID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "AssistantService.ClearHistory")
	defer span.End()

	if err := s.cache.Delete(ctx, HistoryKey(userID)); err != nil {
		return fail(span, apperrors.NewExternalServiceError("conversation store", err))
	}

	s.logger.Info("Assistant history cleared", zap.String("user_id", userID.String()))
	return nil
}

// loadHistory returns an empty conversation for missing or unreadable entries
func (s *AssistantService) loadHistory(ctx context.Context, userID uuid.UUID) (*ai.Conversation, error) {
	conv := &ai.Conversation{}

	data, err := s.cache.Get(ctx, HistoryKey(userID))
	if err != nil {
		if errors.Is(err, outbound.ErrCacheMiss) {
			return conv, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, conv); err != nil {
		s.logger.Warn("Discarding unreadable assistant history",
			zap.String("user_id", userID.String()), zap.Error(err))
		return &ai.Conversation{}, nil
	}

	// History written under a larger size limit
	conv.Trim(s.opts.HistorySize)
	return conv, nil
}

func (s *AssistantService) saveHistory(ctx context.Context, userID uuid.UUID, conv *ai.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, HistoryKey(userID), data, s.opts.HistoryTTL)
}

func fail(span trace.Span, err *apperrors.AppError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Code))
	return err
}
