package errors

import (
	"errors"
)

var (
	ErrTemporary = errors.New("temporary error")
	ErrPermanent = errors.New("permanent error")

	ErrUnreachable = errors.New("unreachable code")

	ErrQueryFormat      = errors.New("query format error")
	ErrURLParse         = errors.New("url parse error")
	ErrInvalidComponent = errors.New("invalid url component")
	ErrReadOnlyField    = errors.New("field is read-only")
	ErrUnknownField     = errors.New("unknown field")
	ErrUnknownFormat    = errors.New("unknown array format")

	ErrNavigation        = errors.New("navigation failed")
	ErrNoHistoryEntry    = errors.New("no history entry")
	ErrTimeout           = errors.New("timeout error")
	ErrRetryFailed       = errors.New("retry failed")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrCircuitOpen       = errors.New("circuit breaker is open")
	ErrCircuitExhausted  = errors.New("circuit breaker is exhausted")

	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrState              = errors.New("invalid address state")
)

// IsTemporary returns true if the error is considered temporary and can be retried.
// Format and parse errors are never temporary: retrying with the same input
// produces the same failure.
func IsTemporary(err error) bool {
	if errors.Is(err, ErrQueryFormat) || errors.Is(err, ErrURLParse) || errors.Is(err, ErrPermanent) {
		return false
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrTemporary)
}

// Is reports whether any error in err's chain is an instance of target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
