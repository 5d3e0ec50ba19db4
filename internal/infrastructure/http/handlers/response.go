// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// responder holds the JSON helpers shared by every handler group
type responder struct {
	logger *zap.Logger
}

// writeJSON writes a JSON response
func (h responder) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeError renders err as an ErrorResponse. Errors that are not AppErrors
// become INTERNAL_ERROR; server-side failures are logged with their cause.
func (h responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.Wrap(err, "Internal server error")
	status := appErr.StatusCode()
	requestID := chimiddleware.GetReqID(r.Context())

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(appErr.Cause),
		)
	}

	h.writeJSON(w, status, apperrors.ToErrorResponse(appErr, requestID))
}

// decodeJSON reads a bounded JSON body into dst. An empty body is a bad
// request.
func (h responder) decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewBadRequestError("Request body is required")
		}
		return apperrors.NewBadRequestError("Invalid JSON payload").WithCause(err)
	}
	return nil
}
