package usecase

import "errors"

var (
	// ErrRemoteNotConfigured is returned for authenticated calls when no
	// remote document store is wired
	ErrRemoteNotConfigured = errors.New("remote store is not configured")

	// ErrTutorNotConfigured is returned when inference is requested without a client
	ErrTutorNotConfigured = errors.New("inference client is not configured")

	// ErrClearNotSupported is returned when clearing a remote collection
	ErrClearNotSupported = errors.New("clear is only supported for the local store")

	// ErrUnknownIdentity is returned for an identity variant the facade cannot route
	ErrUnknownIdentity = errors.New("unknown identity")

	// ErrInvalidToken is returned when an identity token fails verification
	ErrInvalidToken = errors.New("invalid identity token")
)
