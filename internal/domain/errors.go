package domain

import (
	"errors"
	"fmt"
)

// Error message string constants - single source of truth for error messages
const (
	ErrMsgChannel         = "channel failure"
	ErrMsgAuth            = "authentication rejected"
	ErrMsgUnknownKind     = "unknown entity kind"
	ErrMsgNodeNotFound    = "node not found"
	ErrMsgSessionExpired  = "channel session expired"
	ErrMsgInvalidEnvelope = "invalid envelope"
	ErrMsgFileMissing     = "recording file missing"
)

// Common domain errors.
// Wrap these with fmt.Errorf("%w: %s", domain.ErrXxx, detail) for context.
var (
	// ErrChannel covers handshake and transport failures before the remote
	// responded with a usable answer. Retryable.
	ErrChannel = errors.New(ErrMsgChannel)

	// ErrAuth covers identity / proof / capability rejections. Not retryable
	// without reconfiguration.
	ErrAuth = errors.New(ErrMsgAuth)

	// ErrUnknownKind is returned for an entity kind the export side does not
	// serve. A caller bug.
	ErrUnknownKind = errors.New(ErrMsgUnknownKind)

	// ErrNodeNotFound means the remote node id is not in the local registry.
	ErrNodeNotFound = errors.New(ErrMsgNodeNotFound)

	// ErrSessionExpired means the presented channel session is no longer
	// valid and a new handshake is required.
	ErrSessionExpired = errors.New(ErrMsgSessionExpired)

	// ErrInvalidEnvelope means an encrypted payload could not be opened.
	ErrInvalidEnvelope = errors.New(ErrMsgInvalidEnvelope)

	// ErrFileMissing marks an absent recording file. Non-fatal: pulls record
	// it as a note and continue.
	ErrFileMissing = errors.New(ErrMsgFileMissing)
)

// RemoteError carries a non-auth failure status returned by the remote node.
type RemoteError struct {
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error %d: %s", e.Status, e.Detail)
}

// StageError wraps a pull failure with the stage it occurred in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pull stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Stage extracts the failing stage from err, or "" if err carries none.
func Stage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
