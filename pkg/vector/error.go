package vector

import "errors"

var (
	// ErrUpsert is returned when the store rejects or fails a write.
	ErrUpsert = errors.New("vector upsert failed")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrInvalidPoint is returned when a point cannot be represented by the
	// store (wrong dimensions, id out of range).
	ErrInvalidPoint = errors.New("invalid point")

	// ErrCollectionNotFound is returned when the target collection does not
	// exist and the driver does not create collections.
	ErrCollectionNotFound = errors.New("collection not found")
)
