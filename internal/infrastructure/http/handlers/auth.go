package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/alchemorsel/kitchen/internal/domain/user"
	"github.com/alchemorsel/kitchen/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/kitchen/internal/infrastructure/monitoring"
	"github.com/alchemorsel/kitchen/internal/infrastructure/security"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"go.uber.org/zap"
)

// OAuthCallbackKeyHeader carries the shared key of the provider integration
const OAuthCallbackKeyHeader = "X-OAuth-Callback-Key"

// AuthHandlers handles account and session requests
type AuthHandlers struct {
	responder
	users       inbound.UserService
	sessions    *security.SessionManager
	validator   *security.Validator
	metrics     *monitoring.MetricsCollector
	callbackKey string
}

// NewAuthHandlers creates the account handlers. An empty callbackKey
// disables the OAuth callback endpoint.
func NewAuthHandlers(
	users inbound.UserService,
	sessions *security.SessionManager,
	validator *security.Validator,
	metrics *monitoring.MetricsCollector,
	callbackKey string,
	logger *zap.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		responder:   responder{logger: logger.Named("auth-handlers")},
		users:       users,
		sessions:    sessions,
		validator:   validator,
		metrics:     metrics,
		callbackKey: callbackKey,
	}
}

// AuthResponse is returned by every endpoint that opens a session
type AuthResponse struct {
	Success bool             `json:"success"`
	User    *inbound.UserDTO `json:"user"`
}

// Signup handles POST /api/signup
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.RegisterCommand
	if err := h.decodeJSON(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}
	cmd.Email = user.NormalizeEmail(cmd.Email)
	if appErr := h.validator.Validate(&cmd); appErr != nil {
		h.writeError(w, r, appErr)
		return
	}

	dto, err := h.users.Register(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if !h.openSession(w, r, dto) {
		return
	}
	h.metrics.UserRegistered("password")

	h.writeJSON(w, http.StatusCreated, AuthResponse{Success: true, User: dto})
}

// Login handles POST /api/login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.LoginCommand
	if err := h.decodeJSON(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}
	cmd.Email = user.NormalizeEmail(cmd.Email)
	if appErr := h.validator.Validate(&cmd); appErr != nil {
		h.writeError(w, r, appErr)
		return
	}

	dto, err := h.users.Authenticate(r.Context(), cmd)
	if err != nil {
		h.metrics.Login(false)
		h.writeError(w, r, err)
		return
	}
	h.metrics.Login(true)

	if !h.openSession(w, r, dto) {
		return
	}

	h.writeJSON(w, http.StatusOK, AuthResponse{Success: true, User: dto})
}

// Logout handles POST /api/logout
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	h.writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

// CurrentUser handles GET /api/user. A session whose account is gone or
// deactivated is cleared.
func (h *AuthHandlers) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.CurrentUserID(r.Context())

	dto, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeUserNotFound) {
			h.sessions.Clear(w)
		}
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, dto)
}

// OAuthCallback handles POST /auth/oauth/callback. The provider exchange
// happens upstream; this endpoint trusts identities presented with the
// shared callback key.
func (h *AuthHandlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.callbackKey == "" {
		h.writeError(w, r, apperrors.NewNotFoundError("OAuth callback"))
		return
	}
	presented := r.Header.Get(OAuthCallbackKeyHeader)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(h.callbackKey)) != 1 {
		h.writeError(w, r, apperrors.NewUnauthorizedError("Invalid callback key"))
		return
	}

	var cmd inbound.OAuthIdentityCommand
	if err := h.decodeJSON(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}
	cmd.Email = user.NormalizeEmail(cmd.Email)
	if appErr := h.validator.Validate(&cmd); appErr != nil {
		h.writeError(w, r, appErr)
		return
	}

	dto, err := h.users.FindOrCreateOAuthIdentity(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if !h.openSession(w, r, dto) {
		return
	}

	h.logger.Info("OAuth sign-in",
		zap.String("provider", cmd.Provider),
		zap.String("user_id", dto.ID.String()),
	)
	h.writeJSON(w, http.StatusOK, AuthResponse{Success: true, User: dto})
}

func (h *AuthHandlers) openSession(w http.ResponseWriter, r *http.Request, dto *inbound.UserDTO) bool {
	if err := h.sessions.Issue(w, dto.ID, dto.Email); err != nil {
		h.writeError(w, r, apperrors.NewInternalError("Failed to create session").WithCause(err))
		return false
	}
	return true
}
