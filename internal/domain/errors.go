package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")

	// Signup-flow errors. ErrDuplicateRequest means the email already has a
	// pending unexpired passcode; ErrPromotionFailed means the pending entry
	// was consumed but the downstream account creation or login failed, so
	// the registrant must start over.
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrInvalidOTP       = errors.New("invalid otp")
	ErrPromotionFailed  = errors.New("promotion failed")
)
