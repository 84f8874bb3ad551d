package steward

import "errors"

var (
	// ErrStoreRequired is returned by NewEngine without a store.
	ErrStoreRequired = errors.New("steward: store is required")

	// ErrServerRequired is returned by NewEngine without a server.
	ErrServerRequired = errors.New("steward: server is required")

	// ErrUnsupportedEntity is returned when an operation does not apply
	// to the requested entity type.
	ErrUnsupportedEntity = errors.New("steward: unsupported entity type")
)
