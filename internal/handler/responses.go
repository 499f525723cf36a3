package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/opennode-labs/fieldnode/internal/domain"
	"github.com/opennode-labs/fieldnode/internal/pull"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// bufferPool reduces allocations during JSON encoding
var bufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		// Headers are already sent; nothing to do but log.
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// mapSyncErrorToStatus maps domain errors to HTTP status codes and
// user-facing messages. Responses stay generic; the detail goes to the log,
// not to the caller.
func mapSyncErrorToStatus(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgGenericServerError
	}

	switch {
	case errors.Is(err, domain.ErrNodeNotFound):
		return http.StatusNotFound, ErrMsgNodeNotFoundError
	case errors.Is(err, domain.ErrUnknownKind):
		return http.StatusNotFound, ErrMsgUnknownKindError
	case errors.Is(err, domain.ErrAuth):
		return http.StatusUnauthorized, ErrMsgAuthRejectedError
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, ErrMsgSessionExpiredError
	case errors.Is(err, domain.ErrInvalidEnvelope):
		return http.StatusBadRequest, ErrMsgInvalidEnvelopeError
	case errors.Is(err, pull.ErrPullInProgress):
		return http.StatusConflict, ErrMsgPullInProgressError
	case errors.Is(err, domain.ErrChannel):
		return http.StatusBadGateway, ErrMsgRemoteUnreachableError
	}

	var remoteErr *domain.RemoteError
	if errors.As(err, &remoteErr) {
		return http.StatusBadGateway, ErrMsgRemoteRejectedError
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
