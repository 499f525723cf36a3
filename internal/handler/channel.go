package handler

import (
	"encoding/json"
	"net/http"

	"github.com/opennode-labs/fieldnode/internal/channel"
	"github.com/opennode-labs/fieldnode/internal/logger"
	"github.com/opennode-labs/fieldnode/internal/metrics"
)

// HandleChannelOpen starts a channel handshake from a remote node.
func HandleChannelOpen(ch *channel.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req channel.OpenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]any{"errors": FormatValidationError(err)})
			return
		}

		resp, err := ch.Open(req)
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Warn("channel open rejected", "node_id", req.NodeID, "error", err)
			status, msg := mapSyncErrorToStatus(err)
			respondError(w, status, msg)
			return
		}

		metrics.ChannelSessionsOpened.Inc()
		respondJSON(w, http.StatusOK, resp)
	}
}

// HandleChannelConfirm completes a handshake with the client's proof.
func HandleChannelConfirm(ch *channel.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req channel.ConfirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]any{"errors": FormatValidationError(err)})
			return
		}

		if err := ch.Confirm(req); err != nil {
			status, msg := mapSyncErrorToStatus(err)
			respondError(w, status, msg)
			return
		}

		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgChannelConfirmed})
	}
}

// HandleChannelClose tears down the caller's session.
func HandleChannelClose(ch *channel.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := ch.Authenticate(r.Header.Get(channel.SessionHeader))
		if err != nil {
			status, msg := mapSyncErrorToStatus(err)
			respondError(w, status, msg)
			return
		}

		ch.Close(sess.ID)
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgChannelClosed})
	}
}
