package server

// HTTP error messages for middleware responses
const (
	ErrMsgUnauthorized    = "Unauthorized"
	ErrMsgTooManyRequests = "Too Many Requests"
)

// Security alert message templates
const (
	SecurityAlertFailedAuth = "SECURITY ALERT: Multiple failed authentication attempts"
	SecurityAlertHighRate   = "SECURITY ALERT: Blocking high request rate"
)

// Log messages for server lifecycle and request handling
const (
	LogMsgServerStarting   = "Server starting"
	LogMsgRequestStarted   = "Request started"
	LogMsgRequestCompleted = "Request completed"
	LogMsgRequestHeaders   = "Request headers"
	LogMsgAuthFailed       = "Authentication failed"
)

// HTTP header names
const (
	HeaderAPIKey         = "X-API-Key"
	HeaderForwardedFor   = "X-Forwarded-For"
	HeaderContentType    = "X-Content-Type-Options"
	HeaderFrameOptions   = "X-Frame-Options"
	HeaderXSSProtection  = "X-XSS-Protection"
	HeaderReferrerPolicy = "Referrer-Policy"
)

// Security header values
const (
	HeaderValueNoSniff              = "nosniff"
	HeaderValueSameOrigin           = "SAMEORIGIN"
	HeaderValueXSSBlock             = "1; mode=block"
	HeaderValueReferrerStrictOrigin = "strict-origin-when-cross-origin"
)

// Public path prefixes that bypass API-key authentication. The channel and
// node-facing sync endpoints authenticate with channel sessions instead of
// the operator API key; the pull and log endpoints are operator-facing and
// stay behind the key.
var PublicPaths = []string{
	"/healthz",
	"/readyz",
	"/metrics",
	"/version",
	"/api/v1/channel/",
	"/api/v1/sync/manifest",
	"/api/v1/sync/entities/",
	"/api/v1/sync/recordings/",
}

// NodeFacingPaths are the prefixes served to remote nodes. They move entity
// pages and recording payloads, so their rate ceiling is raised.
var NodeFacingPaths = []string{
	"/api/v1/channel/",
	"/api/v1/sync/manifest",
	"/api/v1/sync/entities/",
	"/api/v1/sync/recordings/",
}

// Rate limits per 5-minute window
const (
	RequestLimitStandard   = 1000
	RequestLimitNodeFacing = 10 * RequestLimitStandard
)

// Request body limits. Imports never upload here; the node-facing surface
// is read-only, so a small request cap suffices.
const MaxRequestBodyBytes = 1 << 20

// Header redaction marker
const RedactedValue = "[REDACTED]"
