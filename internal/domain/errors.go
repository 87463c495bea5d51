package domain

import "errors"

// Kind classifies a domain error by how the call supervisor must react to
// it. Readers/writers never decide retry-vs-degrade-vs-terminate policy
// themselves; they surface a Kind and the supervisor switches on it.
type Kind string

const (
	KindTransport Kind = "transport" // carrier or model socket failure
	KindProtocol  Kind = "protocol"  // unexpected/missing event fields
	KindTimeout   Kind = "timeout"   // setup/thinking/duration timeouts
	KindResource  Kind = "resource"  // payload too large, cache create failed
	KindAudio     Kind = "audio"     // bad frame, odd length
	KindFatal     Kind = "fatal"     // exhausted reconnects, unrecoverable model error
)

// Sentinel errors, grouped by the area of the system that raises them.
var (
	// Call / supervisor
	ErrCallNotFound                = errors.New("call not found")
	ErrInvalidCallStatusTransition = errors.New("invalid call status transition")
	ErrMaxDurationExceeded         = errors.New("call exceeded max duration")

	// Agent / config
	ErrAgentNotFound  = errors.New("agent not found")
	ErrInvalidAgentID = errors.New("invalid agent id")

	// Carrier
	ErrCarrierProtocolError = errors.New("carrier protocol error")
	ErrUnknownCarrierEvent  = errors.New("unknown carrier event")

	// Audio codec
	ErrBadAudioFrame = errors.New("bad audio frame")

	// Model session
	ErrSetupTimeout        = errors.New("model setup timed out")
	ErrPayloadTooLarge     = errors.New("knowledge payload exceeds character ceiling")
	ErrReconnectExhausted  = errors.New("model session reconnect attempts exhausted")
	ErrSessionClosed       = errors.New("model session is closed")
	ErrLLMThinkingTimeout  = errors.New("model thinking timeout")
	ErrInvalidCacheHandle  = errors.New("cache handle does not match expected format")

	// Context cache manager
	ErrCacheCreateFailed = errors.New("cache create failed")

	// Hedge selector
	ErrNoFillerAvailable = errors.New("no filler available for language")

	// Generic
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
)

// DomainError wraps a sentinel error with a Kind and optional human-readable
// context, so the supervisor can match on Kind() without string comparison.
type DomainError struct {
	Err     error
	Message string
	Kind    Kind
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError wraps err with a Kind classification.
func NewDomainError(err error, kind Kind, message string) *DomainError {
	return &DomainError{Err: err, Kind: kind, Message: message}
}

// ErrorKind extracts the Kind from err if it (or something it wraps) is a
// *DomainError; otherwise returns KindFatal, the conservative default.
func ErrorKind(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindFatal
}
