package vector

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Writer writes one point per embedded section into a fixed collection.
// Point ids are StartID + seq.
type Writer struct {
	driver     Driver
	collection string
	startID    uint64
}

// NewWriter binds driver to collection with ids starting at startID.
func NewWriter(driver Driver, collection string, startID uint64) (*Writer, error) {
	if driver == nil {
		return nil, errors.New("vector driver is required")
	}
	if collection == "" {
		return nil, errors.New("collection name is required")
	}
	return &Writer{
		driver:     driver,
		collection: collection,
		startID:    startID,
	}, nil
}

// Collection returns the collection points are written to.
func (w *Writer) Collection() string {
	return w.collection
}

// PointID returns the id assigned to the section at seq. Ids never wrap:
// a seq past the end of the id space returns ErrInvalidPoint.
func (w *Writer) PointID(seq uint64) (uint64, error) {
	if seq > math.MaxUint64-w.startID {
		return 0, fmt.Errorf("%w: start id %d + seq %d overflows the id space", ErrInvalidPoint, w.startID, seq)
	}
	return w.startID + seq, nil
}

// Write upserts a single point for the section at seq and returns its id.
// Errors wrap ErrUpsert, or ErrInvalidPoint when seq has no id.
func (w *Writer) Write(ctx context.Context, seq uint64, vec []float32, source string) (uint64, error) {
	id, err := w.PointID(seq)
	if err != nil {
		return 0, err
	}
	p := Point{
		ID:     id,
		Vector: vec,
		Payload: map[string]any{
			PayloadSourceKey: source,
		},
	}

	if err := w.driver.Upsert(ctx, w.collection, []Point{p}); err != nil {
		if errors.Is(err, ErrUpsert) {
			return id, err
		}
		return id, fmt.Errorf("%w: point %d: %w", ErrUpsert, id, err)
	}
	return id, nil
}
