package channel

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// maxSessions bounds the server-side session cache. Peers are few; this is
// generous headroom for overlapping handshakes.
const maxSessions = 256

// Session is the server-side state of one channel.
type Session struct {
	ID          string
	NodeID      string
	Key         []byte
	ClientNonce []byte
	ServerNonce []byte
	Confirmed   bool
	ExpiresAt   time.Time
}

// sessionStore keeps live sessions in an expiring LRU so abandoned
// handshakes age out on their own.
type sessionStore struct {
	cache *expirable.LRU[string, *Session]
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{cache: expirable.NewLRU[string, *Session](maxSessions, nil, ttl)}
}

func (s *sessionStore) put(sess *Session) {
	s.cache.Add(sess.ID, sess)
}

func (s *sessionStore) get(id string) (*Session, bool) {
	sess, ok := s.cache.Get(id)
	if !ok || time.Now().After(sess.ExpiresAt) {
		return nil, false
	}
	return sess, true
}

func (s *sessionStore) remove(id string) {
	s.cache.Remove(id)
}
