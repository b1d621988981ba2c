package checkout

import "errors"

// Business-rule failures. Handlers map these to distinguishable HTTP
// responses; anything else is an internal storage failure and must be
// reported generically.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrConflict         = errors.New("conflict")
	ErrNotAuthorized    = errors.New("not authorized")
)
