package handlers

import (
	"net/http"
	"time"

	"github.com/alchemorsel/kitchen/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/kitchen/internal/infrastructure/monitoring"
	"github.com/alchemorsel/kitchen/internal/infrastructure/security"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"go.uber.org/zap"
)

// AssistantHandlers exposes the cooking assistant
type AssistantHandlers struct {
	responder
	assistant inbound.AssistantService
	validator *security.Validator
	metrics   *monitoring.MetricsCollector
}

// NewAssistantHandlers creates the assistant handlers
func NewAssistantHandlers(
	assistant inbound.AssistantService,
	validator *security.Validator,
	metrics *monitoring.MetricsCollector,
	logger *zap.Logger,
) *AssistantHandlers {
	return &AssistantHandlers{
		responder: responder{logger: logger.Named("assistant-handlers")},
		assistant: assistant,
		validator: validator,
		metrics:   metrics,
	}
}

// ChatRequest is the body of POST /api/assistant/chat
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// Chat handles POST /api/assistant/chat
func (h *AssistantHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if appErr := h.validator.Validate(&req); appErr != nil {
		h.writeError(w, r, appErr)
		return
	}

	userID, _ := middleware.CurrentUserID(r.Context())

	start := time.Now()
	reply, err := h.assistant.Chat(r.Context(), userID, req.Message)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.AssistantReply(reply.Offline, time.Since(start))

	h.writeJSON(w, http.StatusOK, reply)
}

// ClearHistory handles DELETE /api/assistant/history
func (h *AssistantHandlers) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.CurrentUserID(r.Context())

	if err := h.assistant.ClearHistory(r.Context(), userID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Conversation cleared"})
}
