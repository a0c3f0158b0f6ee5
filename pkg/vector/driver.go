// Package vector provides the vector store boundary and the writer that
// turns embedded sections into points.
package vector

import "context"

// PayloadSourceKey is the payload key holding a point's source text.
const PayloadSourceKey = "source"

// Point is one record in a vector store collection.
type Point struct {
	// ID is the point's numeric identifier within the collection.
	ID uint64

	// Vector is the embedding.
	Vector []float32

	// Payload carries arbitrary metadata. Points written by Writer always
	// carry PayloadSourceKey.
	Payload map[string]any
}

// Driver writes points to a vector store.
type Driver interface {
	// Upsert stores points in collection. A point with an existing ID
	// replaces the stored one.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Close releases any resources held by the driver.
	Close() error
}
