package channel

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/opennode-labs/fieldnode/internal/domain"
)

// newSessionToken issues the JWT a client presents in the session header.
// It is signed with the node pair's shared secret, so only the two paired
// nodes can mint or verify it.
func newSessionToken(secret []byte, nodeID, sessionID string, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   nodeID,
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// parseSessionToken verifies a session token and returns the node and
// session ids it names. The signing secret depends on which node the token
// claims to be from, so resolution happens inside the keyfunc.
func parseSessionToken(token string, resolveSecret func(nodeID string) ([]byte, error)) (nodeID, sessionID string, err error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		c, ok := t.Claims.(*jwt.RegisteredClaims)
		if !ok || c.Subject == "" {
			return nil, fmt.Errorf("token missing subject")
		}
		secret, err := resolveSecret(c.Subject)
		if err != nil {
			return nil, err
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", "", fmt.Errorf("%w: invalid session token", domain.ErrAuth)
	}
	return claims.Subject, claims.ID, nil
}
