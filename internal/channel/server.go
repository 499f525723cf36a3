package channel

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opennode-labs/fieldnode/internal/cryptox"
	"github.com/opennode-labs/fieldnode/internal/domain"
	"github.com/opennode-labs/fieldnode/internal/registry"
)

// Server is the accepting side of channel handshakes. It verifies that the
// caller holds the pairing secret for a registered node, tracks live
// sessions, and authenticates sync requests against them.
type Server struct {
	registry *registry.Registry
	sessions *sessionStore
	ttl      time.Duration
	log      *slog.Logger
}

// NewServer creates a channel server. ttl bounds session lifetime.
func NewServer(reg *registry.Registry, ttl time.Duration) *Server {
	return &Server{
		registry: reg,
		sessions: newSessionStore(ttl),
		ttl:      ttl,
		log:      slog.Default(),
	}
}

// Open answers a handshake open: it proves this node holds the pairing
// secret (the server proof over both nonces) and issues an unconfirmed
// session. An unknown node id or a malformed nonce is an auth rejection;
// no detail about registered peers leaks to the caller.
func (s *Server) Open(req OpenRequest) (*OpenResponse, error) {
	peer, err := s.registry.Resolve(req.NodeID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown node", domain.ErrAuth)
	}
	if len(req.ClientNonce) != cryptox.ChallengeSize {
		return nil, fmt.Errorf("%w: bad client nonce", domain.ErrAuth)
	}

	serverNonce, err := cryptox.GenerateNonce(cryptox.ChallengeSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChannel, err)
	}

	key, err := cryptox.DeriveSessionKey(peer.Secret, req.ClientNonce, serverNonce)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChannel, err)
	}

	sessionID := uuid.NewString()
	expiresAt := time.Now().Add(s.ttl)
	token, err := newSessionToken(peer.Secret, peer.ID, sessionID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChannel, err)
	}

	s.sessions.put(&Session{
		ID:          sessionID,
		NodeID:      peer.ID,
		Key:         key,
		ClientNonce: req.ClientNonce,
		ServerNonce: serverNonce,
		ExpiresAt:   expiresAt,
	})

	s.log.Info("channel opened", "remote_node_id", peer.ID, "session_id", sessionID)

	return &OpenResponse{
		SessionID:   sessionID,
		ServerNonce: serverNonce,
		ServerProof: cryptox.Proof(peer.Secret, req.ClientNonce, serverNonce),
		ExpiresAt:   expiresAt,
		Token:       token,
	}, nil
}

// Confirm verifies the client's counter-proof and marks the session usable.
// A bad proof burns the session: the handshake must restart from Open.
func (s *Server) Confirm(req ConfirmRequest) error {
	sess, ok := s.sessions.get(req.SessionID)
	if !ok {
		return fmt.Errorf("%w: unknown session", domain.ErrSessionExpired)
	}

	peer, err := s.registry.Resolve(sess.NodeID)
	if err != nil {
		return fmt.Errorf("%w: unknown node", domain.ErrAuth)
	}

	if !cryptox.VerifyProof(peer.Secret, sess.ServerNonce, sess.ClientNonce, req.ClientProof) {
		s.sessions.remove(sess.ID)
		s.log.Warn("channel confirm rejected", "remote_node_id", sess.NodeID, "session_id", sess.ID)
		return fmt.Errorf("%w: bad client proof", domain.ErrAuth)
	}

	sess.Confirmed = true
	s.log.Info("channel confirmed", "remote_node_id", sess.NodeID, "session_id", sess.ID)
	return nil
}

// Authenticate resolves a session token from a sync request into its live,
// confirmed session.
func (s *Server) Authenticate(token string) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing session token", domain.ErrAuth)
	}

	_, sessionID, err := parseSessionToken(token, func(nodeID string) ([]byte, error) {
		peer, err := s.registry.Resolve(nodeID)
		if err != nil {
			return nil, err
		}
		return peer.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	sess, ok := s.sessions.get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: session %s", domain.ErrSessionExpired, sessionID)
	}
	if !sess.Confirmed {
		return nil, fmt.Errorf("%w: session not confirmed", domain.ErrAuth)
	}
	return sess, nil
}

// Close discards a session. Closing an unknown session is a no-op.
func (s *Server) Close(sessionID string) {
	s.sessions.remove(sessionID)
}
