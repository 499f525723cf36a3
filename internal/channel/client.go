package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/opennode-labs/fieldnode/internal/cryptox"
	"github.com/opennode-labs/fieldnode/internal/domain"
	"github.com/opennode-labs/fieldnode/internal/registry"
)

// maxResponseSize bounds how much of a remote response is read. Recording
// payloads dominate; 512 MiB is far past any expected file.
const maxResponseSize = 512 << 20

// ManifestRequest is the sealed body of a manifest call.
type ManifestRequest struct {
	Since *time.Time `json:"since,omitempty"`
}

// Client is the pulling side of a channel: it performs the handshake against
// a remote node and then reads that node's export through sealed envelopes.
type Client struct {
	peer      registry.Peer
	http      *http.Client
	log       *slog.Logger
	sessionID string
	token     string
	key       []byte
}

// Open performs the full handshake against peer and returns a ready client.
// localNodeID names this node; the remote looks up the same pairing secret
// under it. Open verifies the remote's proof before trusting anything it
// says, so a peer that does not hold the secret is rejected as ErrAuth.
func Open(ctx context.Context, localNodeID string, peer registry.Peer, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{peer: peer, http: httpClient, log: slog.Default()}

	clientNonce, err := cryptox.GenerateNonce(cryptox.ChallengeSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChannel, err)
	}

	var opened OpenResponse
	status, err := c.roundTrip(ctx, http.MethodPost, "/api/v1/channel/open",
		OpenRequest{NodeID: localNodeID, ClientNonce: clientNonce}, &opened)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: open returned %d", domain.ErrChannel, status)
	}

	if !cryptox.VerifyProof(peer.Secret, clientNonce, opened.ServerNonce, opened.ServerProof) {
		return nil, fmt.Errorf("%w: remote node failed secret proof", domain.ErrAuth)
	}

	key, err := cryptox.DeriveSessionKey(peer.Secret, clientNonce, opened.ServerNonce)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChannel, err)
	}

	confirm := ConfirmRequest{
		SessionID:   opened.SessionID,
		ClientProof: cryptox.Proof(peer.Secret, opened.ServerNonce, clientNonce),
	}
	status, err = c.roundTrip(ctx, http.MethodPost, "/api/v1/channel/confirm", confirm, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: confirm returned %d", domain.ErrChannel, status)
	}

	c.sessionID = opened.SessionID
	c.token = opened.Token
	c.key = key
	c.log.Debug("channel established", "remote_node_id", peer.ID, "session_id", c.sessionID)
	return c, nil
}

// Manifest asks the remote to summarize everything updated after since.
func (c *Client) Manifest(ctx context.Context, since *time.Time) (*domain.Manifest, error) {
	env, err := SealEnvelope(ManifestRequest{Since: since}, c.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChannel, err)
	}

	var sealed Envelope
	status, err := c.roundTrip(ctx, http.MethodPost, "/api/v1/sync/manifest", env, &sealed)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &domain.RemoteError{Status: status, Detail: "manifest rejected"}
	}

	var manifest domain.Manifest
	if err := OpenEnvelope(&sealed, c.key, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// EntityPage fetches one page of a kind from the remote export.
func (c *Client) EntityPage(ctx context.Context, kind string, since *time.Time, page, pageSize int) (*domain.EntityPage, error) {
	query := url.Values{
		"page":      []string{strconv.Itoa(page)},
		"page_size": []string{strconv.Itoa(pageSize)},
	}
	if since != nil {
		query.Set("since", since.UTC().Format(time.RFC3339Nano))
	}
	path := "/api/v1/sync/entities/" + url.PathEscape(kind) + "?" + query.Encode()

	var sealed Envelope
	status, err := c.roundTrip(ctx, http.MethodGet, path, nil, &sealed)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &domain.RemoteError{Status: status, Detail: "entity page rejected: " + kind}
	}

	var result domain.EntityPage
	if err := OpenEnvelope(&sealed, c.key, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RecordingFile fetches one recording payload. A remote 404 means the file
// does not exist over there; that is reported as (nil, nil), not an error.
func (c *Client) RecordingFile(ctx context.Context, id string) (*domain.FilePayload, error) {
	path := "/api/v1/sync/recordings/" + url.PathEscape(id) + "/file"

	var sealed Envelope
	status, err := c.roundTrip(ctx, http.MethodGet, path, nil, &sealed)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, &domain.RemoteError{Status: status, Detail: "recording file rejected: " + id}
	}

	var payload domain.FilePayload
	if err := OpenEnvelope(&sealed, c.key, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Close tears the session down on the remote. Best effort: the session
// would age out on its own.
func (c *Client) Close(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}
	status, err := c.roundTrip(ctx, http.MethodPost, "/api/v1/channel/close", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return fmt.Errorf("%w: close returned %d", domain.ErrChannel, status)
	}
	return nil
}

// RemoteNodeID names the peer this client talks to.
func (c *Client) RemoteNodeID() string {
	return c.peer.ID
}

// roundTrip sends one request and decodes a JSON response into out when a
// body is expected. It folds status handling into the error taxonomy:
// transport failures are ErrChannel, 401/403 are ErrAuth. 404 and other
// statuses are returned to the caller, who knows what they mean per call.
func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrChannel, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.peer.Address+path, body)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrChannel, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(SessionHeader, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrChannel, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrChannel, err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return resp.StatusCode, fmt.Errorf("%w: remote returned %d: %s",
			domain.ErrAuth, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: bad response body: %v", domain.ErrChannel, err)
		}
	}
	return resp.StatusCode, nil
}
