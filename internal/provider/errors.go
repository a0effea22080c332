package provider

import (
	"errors"
	"fmt"

	"github.com/openai/openai-go"
)

// ErrorKind is the coarse failure category of a completion call. It is
// safe to expose in audit records; the underlying detail is not.
type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"    // network failure, timeout
	KindAuth        ErrorKind = "auth"         // invalid or revoked credential
	KindRateLimited ErrorKind = "rate_limited" // quota or rate-limit rejection
	KindUpstream    ErrorKind = "upstream"     // 5xx from the API
	KindRejected    ErrorKind = "rejected"     // request refused (4xx, content policy)
	KindMalformed   ErrorKind = "malformed"    // empty or undecodable response
)

// CompletionError wraps a failed completion call with its kind. The call
// is all-or-nothing: no partial text accompanies an error.
type CompletionError struct {
	Kind   ErrorKind
	Status int // HTTP status when known, 0 otherwise
	Err    error
}

func (e *CompletionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("completion %s (HTTP %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("completion %s: %v", e.Kind, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Transient reports whether retrying can help. Auth failures and request
// rejections never become valid by waiting.
func (e *CompletionError) Transient() bool {
	switch e.Kind {
	case KindTransport, KindUpstream, KindRateLimited:
		return true
	}
	return false
}

// classify maps an SDK error to a CompletionError.
func classify(err error) *CompletionError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return &CompletionError{Kind: KindAuth, Status: apiErr.StatusCode, Err: err}
		case apiErr.StatusCode == 429:
			return &CompletionError{Kind: KindRateLimited, Status: apiErr.StatusCode, Err: err}
		case apiErr.StatusCode >= 500:
			return &CompletionError{Kind: KindUpstream, Status: apiErr.StatusCode, Err: err}
		default:
			return &CompletionError{Kind: KindRejected, Status: apiErr.StatusCode, Err: err}
		}
	}
	return &CompletionError{Kind: KindTransport, Err: err}
}
