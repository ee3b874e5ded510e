package targeting

import "errors"

// Error kinds reported by a targeting pass.
var (
	// ErrInvalidInput marks a caller error: an article without identity or an
	// unknown channel. Not retryable.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreUnavailable marks a failed subscription store read. The whole
	// pass fails and no targets are produced; callers may retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)
