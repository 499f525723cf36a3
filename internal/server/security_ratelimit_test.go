package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitMiddleware_StandardCeiling(t *testing.T) {
	detector := NewSuspiciousActivityDetector()
	middleware := RateLimitMiddleware(nil, detector)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ip := "192.168.1.100"
	req := httptest.NewRequest("GET", "/api/v1/sync/log", nil)
	req.RemoteAddr = ip + ":1234"

	for i := 0; i < RequestLimitStandard; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d failed with status %d", i, rec.Code)
		}
	}

	// Next request should be blocked
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429 Too Many Requests, got %d", rec.Code)
	}

	detector.mu.Lock()
	count := detector.requestCountByIP[ip]
	detector.mu.Unlock()

	if count != RequestLimitStandard+1 {
		t.Errorf("expected count %d, got %d", RequestLimitStandard+1, count)
	}
}

func TestRateLimitMiddleware_NodeFacingCeilingIsHigher(t *testing.T) {
	detector := NewSuspiciousActivityDetector()
	middleware := RateLimitMiddleware(nil, detector)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// A paginated pull from a peer legitimately exceeds the operator
	// ceiling; node-facing paths must keep serving well past it.
	ip := "10.0.0.7"
	req := httptest.NewRequest("GET", "/api/v1/sync/entities/recordings", nil)
	req.RemoteAddr = ip + ":4321"

	for i := 0; i < RequestLimitStandard+100; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("node-facing request %d blocked with status %d", i, rec.Code)
		}
	}
}

func TestRequestLimitFor(t *testing.T) {
	tests := []struct {
		path  string
		limit int
	}{
		{"/api/v1/sync/entities/languages", RequestLimitNodeFacing},
		{"/api/v1/sync/recordings/abc/file", RequestLimitNodeFacing},
		{"/api/v1/sync/manifest", RequestLimitNodeFacing},
		{"/api/v1/channel/open", RequestLimitNodeFacing},
		{"/api/v1/sync/pull", RequestLimitStandard},
		{"/api/v1/sync/log", RequestLimitStandard},
		{"/api/v1/nodes", RequestLimitStandard},
		{"/healthz", RequestLimitStandard},
	}

	for _, tt := range tests {
		if got := requestLimitFor(tt.path); got != tt.limit {
			t.Errorf("requestLimitFor(%q) = %d, want %d", tt.path, got, tt.limit)
		}
	}
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name           string
		remoteAddr     string
		forwardedFor   string
		trustedProxies []string
		expected       string
	}{
		{
			name:       "Direct connection",
			remoteAddr: "203.0.113.5:1234",
			expected:   "203.0.113.5",
		},
		{
			name:           "Forwarded header from untrusted source is ignored",
			remoteAddr:     "203.0.113.5:1234",
			forwardedFor:   "10.0.0.1",
			trustedProxies: []string{"192.168.0.1"},
			expected:       "203.0.113.5",
		},
		{
			name:           "Forwarded header from trusted proxy is honored",
			remoteAddr:     "192.168.0.1:1234",
			forwardedFor:   "203.0.113.5",
			trustedProxies: []string{"192.168.0.1"},
			expected:       "203.0.113.5",
		},
		{
			name:           "Rightmost forwarded hop wins",
			remoteAddr:     "192.168.0.1:1234",
			forwardedFor:   "10.0.0.9, 203.0.113.5",
			trustedProxies: []string{"192.168.0.1"},
			expected:       "203.0.113.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwardedFor != "" {
				req.Header.Set(HeaderForwardedFor, tt.forwardedFor)
			}

			if got := extractIP(req, tt.trustedProxies); got != tt.expected {
				t.Errorf("extractIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}
