package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennode-labs/fieldnode/internal/domain"
	"github.com/opennode-labs/fieldnode/internal/handler"
	"github.com/opennode-labs/fieldnode/internal/pull"
)

type fakePullService struct {
	result *domain.SyncResult
	err    error

	gotRemote string
	gotSince  *time.Time
}

func (f *fakePullService) Pull(_ context.Context, remoteNodeID string, since *time.Time) (*domain.SyncResult, error) {
	f.gotRemote = remoteNodeID
	f.gotSince = since
	return f.result, f.err
}

func TestHandlePull(t *testing.T) {
	handler.InitValidator()

	now := time.Now().UTC()
	completed := &domain.SyncResult{
		Status:       domain.SyncStatusCompleted,
		RemoteNodeID: "node-b",
		StartedAt:    now,
		Watermark:    &now,
		EntityCounts: map[string]int{"languages": 3, "recordings": 1},
	}

	tests := []struct {
		name           string
		requestBody    any
		svc            *fakePullService
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Success",
			requestBody:    handler.PullRequest{RemoteNodeID: "node-b"},
			svc:            &fakePullService{result: completed},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "Unknown Remote Node",
			requestBody: handler.PullRequest{RemoteNodeID: "node-x"},
			svc: &fakePullService{err: &domain.StageError{
				Stage: domain.StageResolve,
				Err:   domain.ErrNodeNotFound,
			}},
			expectedStatus: http.StatusNotFound,
			expectedError:  handler.ErrMsgNodeNotFoundError,
		},
		{
			name:        "Handshake Rejected",
			requestBody: handler.PullRequest{RemoteNodeID: "node-b"},
			svc: &fakePullService{err: &domain.StageError{
				Stage: domain.StageHandshake,
				Err:   domain.ErrAuth,
			}},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  handler.ErrMsgAuthRejectedError,
		},
		{
			name:        "Remote Unreachable",
			requestBody: handler.PullRequest{RemoteNodeID: "node-b"},
			svc: &fakePullService{err: &domain.StageError{
				Stage: domain.StageManifest,
				Err:   domain.ErrChannel,
			}},
			expectedStatus: http.StatusBadGateway,
			expectedError:  handler.ErrMsgRemoteUnreachableError,
		},
		{
			name:           "Pull Already Running",
			requestBody:    handler.PullRequest{RemoteNodeID: "node-b"},
			svc:            &fakePullService{err: pull.ErrPullInProgress},
			expectedStatus: http.StatusConflict,
			expectedError:  handler.ErrMsgPullInProgressError,
		},
		{
			name:        "Remote Rejected Request",
			requestBody: handler.PullRequest{RemoteNodeID: "node-b"},
			svc: &fakePullService{err: &domain.StageError{
				Stage: domain.StageEntities,
				Err:   &domain.RemoteError{Status: http.StatusForbidden, Detail: "quota"},
			}},
			expectedStatus: http.StatusBadGateway,
			expectedError:  handler.ErrMsgRemoteRejectedError,
		},
		{
			name:           "Import Failure",
			requestBody:    handler.PullRequest{RemoteNodeID: "node-b"},
			svc:            &fakePullService{err: errors.New("tx aborted")},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  handler.ErrMsgGenericServerError,
		},
		{
			name:           "Malformed JSON",
			requestBody:    "not-json",
			svc:            &fakePullService{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  handler.ErrMsgInvalidRequest,
		},
		{
			name:           "Missing Remote Node ID",
			requestBody:    handler.PullRequest{},
			svc:            &fakePullService{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body []byte
			if s, ok := tt.requestBody.(string); ok {
				body = []byte(s)
			} else {
				var err error
				body, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/pull", bytes.NewReader(body))
			w := httptest.NewRecorder()

			handler.HandlePull(tt.svc)(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, strings.ToLower(w.Body.String()), strings.ToLower(tt.expectedError))
			}

			if tt.expectedStatus == http.StatusOK {
				var result domain.SyncResult
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
				assert.Equal(t, domain.SyncStatusCompleted, result.Status)
				assert.Equal(t, "node-b", result.RemoteNodeID)
				assert.Equal(t, completed.EntityCounts, result.EntityCounts)
				assert.Equal(t, "node-b", tt.svc.gotRemote)
			}
		})
	}
}

func TestHandlePullFailedResultStillReported(t *testing.T) {
	handler.InitValidator()

	failed := &domain.SyncResult{
		Status:       domain.SyncStatusFailed,
		RemoteNodeID: "node-b",
		StartedAt:    time.Now().UTC(),
		Stage:        domain.StageImport,
		ErrorMessage: "pull stage import: tx aborted",
	}
	svc := &fakePullService{
		result: failed,
		err:    &domain.StageError{Stage: domain.StageImport, Err: errors.New("tx aborted")},
	}

	body, err := json.Marshal(handler.PullRequest{RemoteNodeID: "node-b"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/pull", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.HandlePull(svc)(w, req)

	// Failed pulls return the audit-shaped result body, not just an error.
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var result domain.SyncResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, domain.SyncStatusFailed, result.Status)
	assert.Equal(t, domain.StageImport, result.Stage)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestHandlePullForwardsSince(t *testing.T) {
	handler.InitValidator()

	since := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc := &fakePullService{result: &domain.SyncResult{Status: domain.SyncStatusCompleted, RemoteNodeID: "node-b"}}

	body, err := json.Marshal(handler.PullRequest{RemoteNodeID: "node-b", Since: &since})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/pull", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.HandlePull(svc)(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.gotSince)
	assert.True(t, svc.gotSince.Equal(since))
}
