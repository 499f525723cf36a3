package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opennode-labs/fieldnode/internal/channel"
	"github.com/opennode-labs/fieldnode/internal/domain"
	"github.com/opennode-labs/fieldnode/internal/export"
	"github.com/opennode-labs/fieldnode/internal/logger"
)

// authenticateSession resolves the session header into a live channel
// session, writing the error response itself on failure.
func authenticateSession(w http.ResponseWriter, r *http.Request, ch *channel.Server) (*channel.Session, bool) {
	sess, err := ch.Authenticate(r.Header.Get(channel.SessionHeader))
	if err != nil {
		status, msg := mapSyncErrorToStatus(err)
		respondError(w, status, msg)
		return nil, false
	}
	return sess, true
}

// respondSealed seals v under the session key and writes it.
func respondSealed(w http.ResponseWriter, r *http.Request, sess *channel.Session, v any) {
	sealed, err := channel.SealEnvelope(v, sess.Key)
	if err != nil {
		logger.FromContext(r.Context()).Error("failed to seal response", "error", err)
		respondError(w, http.StatusInternalServerError, ErrMsgGenericServerError)
		return
	}
	respondJSON(w, http.StatusOK, sealed)
}

// HandleSyncManifest serves the export manifest to an authenticated peer.
func HandleSyncManifest(ch *channel.Server, svc *export.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := authenticateSession(w, r, ch)
		if !ok {
			return
		}

		var env channel.Envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}
		var req channel.ManifestRequest
		if err := channel.OpenEnvelope(&env, sess.Key, &req); err != nil {
			status, msg := mapSyncErrorToStatus(err)
			respondError(w, status, msg)
			return
		}

		manifest, err := svc.Manifest(r.Context(), req.Since)
		if err != nil {
			logger.FromContext(r.Context()).Error(ErrMsgBuildManifestFailed, "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgBuildManifestFailed)
			return
		}

		respondSealed(w, r, sess, manifest)
	}
}

// HandleSyncEntities serves one page of an entity kind to an authenticated
// peer.
func HandleSyncEntities(ch *channel.Server, svc *export.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := authenticateSession(w, r, ch)
		if !ok {
			return
		}

		since, ok := parseSinceParam(r)
		if !ok {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidSinceParam)
			return
		}
		page, ok := parseIntParam(r, "page", 1)
		if !ok {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidPageParam)
			return
		}
		pageSize, ok := parseIntParam(r, "page_size", export.DefaultPageSize)
		if !ok {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidPageParam)
			return
		}

		kind := chi.URLParam(r, "kind")
		result, err := svc.EntityPage(r.Context(), kind, since, page, pageSize)
		if err != nil {
			if errors.Is(err, domain.ErrUnknownKind) {
				respondError(w, http.StatusNotFound, ErrMsgUnknownKindError)
				return
			}
			logger.FromContext(r.Context()).Error(ErrMsgPageEntitiesFailed, "kind", kind, "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgPageEntitiesFailed)
			return
		}

		respondSealed(w, r, sess, result)
	}
}

// HandleRecordingFile serves one recording payload to an authenticated peer.
// An absent payload is a plain 404: the pulling side records the recording
// as missing and moves on.
func HandleRecordingFile(ch *channel.Server, svc *export.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := authenticateSession(w, r, ch)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")
		payload, err := svc.RecordingFile(r.Context(), id)
		if err != nil {
			logger.FromContext(r.Context()).Error(ErrMsgFetchRecordingFailed, "recording_id", id, "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgFetchRecordingFailed)
			return
		}
		if payload == nil {
			respondError(w, http.StatusNotFound, domain.ErrMsgFileMissing)
			return
		}

		respondSealed(w, r, sess, payload)
	}
}
