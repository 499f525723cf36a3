package handler

import (
	"net/http"

	"github.com/opennode-labs/fieldnode/internal/domain"
	"github.com/opennode-labs/fieldnode/internal/logger"
	"github.com/opennode-labs/fieldnode/internal/repository"
)

const defaultLogPageSize = 50

// SyncLogResponse is one page of the sync audit log, newest first.
type SyncLogResponse struct {
	Attempts     []domain.SyncAttempt `json:"attempts"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
	TotalRecords int                  `json:"total_records"`
}

// HandleSyncLog lists sync attempts, optionally filtered to one remote node
// with the "node" query parameter.
func HandleSyncLog(attempts repository.Attempts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ok := parseIntParam(r, "page", 1)
		if !ok {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidPageParam)
			return
		}
		pageSize, ok := parseIntParam(r, "page_size", defaultLogPageSize)
		if !ok {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidPageParam)
			return
		}

		remoteNodeID := r.URL.Query().Get("node")
		list, total, err := attempts.List(r.Context(), remoteNodeID, page, pageSize)
		if err != nil {
			logger.FromContext(r.Context()).Error(ErrMsgListAttemptsFailed, "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgListAttemptsFailed)
			return
		}

		respondJSON(w, http.StatusOK, SyncLogResponse{
			Attempts:     list,
			Page:         page,
			PageSize:     pageSize,
			TotalRecords: total,
		})
	}
}
