// Package cerrors collects the sentinel errors shared across the broker.
// Callers match them with errors.Is; call sites add context with %w wrapping.
package cerrors

import "errors"

var (
	// ErrIdentification means no resolvable user key for the interaction.
	ErrIdentification = errors.New("could not identify user")

	// ErrNotFound means no matching local entry, or the remote service
	// returned no secret payload.
	ErrNotFound = errors.New("not found")

	// ErrRemoteService covers network, HTTP status, and decoding failures
	// from either remote service.
	ErrRemoteService = errors.New("remote service error")

	// ErrImageProcessing means thumbnail generation failed; the entry is
	// kept as an image without thumbnail.
	ErrImageProcessing = errors.New("image processing failed")

	// ErrRender means a successfully retrieved payload could not be
	// displayed. The retrieval itself succeeded.
	ErrRender = errors.New("render failed")

	// ErrPersistence means a metadata read or write failed.
	ErrPersistence = errors.New("persistence error")
)
