package history

import "errors"

var (
	// ErrStorage marks connectivity or durability failures on the store.
	// Callers surface it to the transport layer; it is never swallowed.
	ErrStorage = errors.New("storage error")

	// ErrInvalidQuery marks malformed retrieval parameters. It is a
	// recoverable condition: the tool layer reports it back to the
	// calling agent as a descriptive string so it can correct itself.
	ErrInvalidQuery = errors.New("invalid query")
)
