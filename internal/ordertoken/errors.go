package ordertoken

import "errors"

var (
	ErrMalformed         = errors.New("ordertoken: malformed token")
	ErrSignatureMismatch = errors.New("ordertoken: signature mismatch")
	ErrExpired           = errors.New("ordertoken: token has expired")
	ErrCartMismatch      = errors.New("ordertoken: cart does not match")
	ErrSessionMismatch   = errors.New("ordertoken: session does not match")

	ErrWeakSecret     = errors.New("ordertoken: secret must be at least 32 bytes")
	ErrInvalidBinding = errors.New("ordertoken: cart id and session are required")
)
