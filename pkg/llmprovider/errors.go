package llmprovider

import (
	"errors"
	"strings"
)

// Kind is the error taxonomy from spec §7 — kinds, not concrete types, so
// callers classify with Classify(err) rather than type-switching.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransientNetwork
	KindRateLimit
	KindContextLimit
	KindValidation
	KindTerminalProvider
)

// ProviderError wraps an underlying error with its classified kind and,
// for rate limits, the server-supplied retry-after duration in seconds.
type ProviderError struct {
	Kind       Kind
	RetryAfter int
	Err        error
}

func (e *ProviderError) Error() string {
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

var contextLimitMarkers = []string{
	"maximum context length",
	"token limit",
	"too many tokens",
	"context length exceeded",
}

// Classify inspects err (and, for HTTP-backed clients, the status code) and
// returns its taxonomy kind per spec §7. Either argument may be the zero
// value: pass (err, 0) for a transport-level error, or (nil, statusCode)
// to classify a non-2xx HTTP response with no Go error attached yet.
func Classify(err error, statusCode int) Kind {
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) {
			return pe.Kind
		}

		msg := strings.ToLower(err.Error())
		for _, marker := range contextLimitMarkers {
			if strings.Contains(msg, marker) {
				return KindContextLimit
			}
		}
	}

	switch {
	case statusCode == 429:
		return KindRateLimit
	case statusCode == 401 || statusCode == 403 || statusCode == 404:
		return KindTerminalProvider
	case statusCode >= 500:
		return KindTransientNetwork
	case statusCode == 0 && err != nil:
		return KindTransientNetwork
	default:
		return KindUnknown
	}
}

// IsRetriable reports whether the provider registry's backoff loop should
// retry a call that failed with this kind.
func (k Kind) IsRetriable() bool {
	return k == KindTransientNetwork || k == KindRateLimit
}
