package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/opennode-labs/fieldnode/internal/domain"
	"github.com/opennode-labs/fieldnode/internal/logger"
)

// PullService runs pulls against remote nodes.
type PullService interface {
	Pull(ctx context.Context, remoteNodeID string, since *time.Time) (*domain.SyncResult, error)
}

// PullRequest represents the body of a pull request
type PullRequest struct {
	RemoteNodeID string     `json:"remote_node_id" validate:"required"`
	Since        *time.Time `json:"since,omitempty"`
}

// HandlePull triggers a synchronization pull from a remote node. The
// response carries the sync result either way; the status code reflects
// where a failed pull died.
func HandlePull(svc PullService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PullRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]any{"errors": FormatValidationError(err)})
			return
		}

		result, err := svc.Pull(r.Context(), req.RemoteNodeID, req.Since)
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error("pull request failed",
				"remote_node_id", req.RemoteNodeID,
				"stage", domain.Stage(err),
				"error", err)

			status, msg := mapSyncErrorToStatus(err)
			if result == nil {
				respondError(w, status, msg)
				return
			}
			respondJSON(w, status, result)
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}
