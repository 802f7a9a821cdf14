package apperrors

import "errors"

// Standardized trading errors
var (
	ErrUnknownOrder  = errors.New("unknown order")
	ErrStaleBook     = errors.New("stale order book")
	ErrThrottled     = errors.New("operation throttled")
	ErrPositionLimit = errors.New("position limit reached")
	ErrOrderRejected = errors.New("order rejected")
	ErrSessionClosed = errors.New("execution session closed")
)
