package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")

	// Session gate.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Document builder.
	ErrInvalidKind   = errors.New("invalid document kind")
	ErrInvalidField  = errors.New("invalid field")
	ErrItemIndex     = errors.New("item index out of range")
	ErrInvalidNumber = errors.New("invalid number")

	ErrRendererUnavailable = errors.New("renderer unavailable")
)
