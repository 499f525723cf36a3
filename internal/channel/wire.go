// Package channel implements the authenticated encrypted channel between
// paired nodes: a nonce/proof handshake bound to the pre-shared pairing
// secret, a derived per-session AES-GCM key, and the sealed envelopes every
// sync payload rides in.
package channel

import (
	"fmt"
	"time"

	"github.com/opennode-labs/fieldnode/internal/cryptox"
	"github.com/opennode-labs/fieldnode/internal/domain"
)

// SessionHeader carries the session token on sync requests.
const SessionHeader = "X-Node-Session"

// OpenRequest starts a handshake. Byte fields ride as base64 in JSON.
type OpenRequest struct {
	NodeID      string `json:"node_id" validate:"required"`
	ClientNonce []byte `json:"client_nonce" validate:"required"`
}

// OpenResponse answers an open: the server's nonce, its proof over both
// nonces, and the token the client presents on subsequent requests.
type OpenResponse struct {
	SessionID   string    `json:"session_id"`
	ServerNonce []byte    `json:"server_nonce"`
	ServerProof []byte    `json:"server_proof"`
	ExpiresAt   time.Time `json:"expires_at"`
	Token       string    `json:"token"`
}

// ConfirmRequest completes a handshake with the client's counter-proof.
type ConfirmRequest struct {
	SessionID   string `json:"session_id" validate:"required"`
	ClientProof []byte `json:"client_proof" validate:"required"`
}

// Envelope is a sealed JSON payload: AES-GCM ciphertext plus its nonce.
type Envelope struct {
	Nonce   []byte `json:"nonce"`
	Payload []byte `json:"payload"`
}

// SealEnvelope encrypts v under the session key.
func SealEnvelope(v any, key []byte) (*Envelope, error) {
	ciphertext, nonce, err := cryptox.Seal(v, key)
	if err != nil {
		return nil, fmt.Errorf("failed to seal envelope: %w", err)
	}
	return &Envelope{Nonce: nonce, Payload: ciphertext}, nil
}

// OpenEnvelope decrypts env into v. Any decrypt or decode failure comes back
// as domain.ErrInvalidEnvelope: a tampered or mis-keyed payload.
func OpenEnvelope(env *Envelope, key []byte, v any) error {
	if env == nil || len(env.Nonce) != cryptox.NonceSize || len(env.Payload) == 0 {
		return domain.ErrInvalidEnvelope
	}
	if err := cryptox.Open(env.Payload, env.Nonce, key, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidEnvelope, err)
	}
	return nil
}
