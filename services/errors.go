package services

import "errors"

// Settlement failure classes. Handlers map these onto HTTP status codes;
// anything else bubbling out of a settlement is treated as internal.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrFailedPrecondition = errors.New("failed precondition")
	ErrPermissionDenied   = errors.New("permission denied")
)
