package errcode

// Codes carried in the response envelope. Values are stable once released.
const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrTooMany
	ErrInternal
	ErrInvalidFile
)

// Account and one-time code failures.
const (
	ErrInvalidCode = 10000100 + iota
	ErrAllocationExhausted
	ErrDeliveryFailed
)
