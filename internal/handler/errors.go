package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details.
// Both handlers and tests should reference these constants to maintain
// consistency.
const (
	// HTTP status messages
	ErrMsgInvalidRequest = "Invalid request body"

	// Sync error messages
	ErrMsgNodeNotFoundError      = "Remote node is not registered"
	ErrMsgUnknownKindError       = "Unknown entity kind"
	ErrMsgAuthRejectedError      = "Channel authentication rejected"
	ErrMsgSessionExpiredError    = "Channel session expired, reopen the channel"
	ErrMsgInvalidEnvelopeError   = "Payload could not be decrypted"
	ErrMsgPullInProgressError    = "A pull is already running"
	ErrMsgRemoteUnreachableError = "Remote node unreachable"
	ErrMsgRemoteRejectedError    = "Remote node rejected the request"
	ErrMsgGenericServerError     = "Something went wrong"

	// Query parameter error messages
	ErrMsgInvalidSinceParam = "Invalid since parameter, want RFC 3339"
	ErrMsgInvalidPageParam  = "Invalid page parameter"

	// Export error messages
	ErrMsgBuildManifestFailed  = "Failed to build manifest"
	ErrMsgPageEntitiesFailed   = "Failed to page entities"
	ErrMsgFetchRecordingFailed = "Failed to fetch recording file"

	// Audit log error messages
	ErrMsgListAttemptsFailed = "Failed to list sync attempts"
)

// Success messages for API responses
const (
	MsgChannelConfirmed = "Channel confirmed"
	MsgChannelClosed    = "Channel closed"
)
