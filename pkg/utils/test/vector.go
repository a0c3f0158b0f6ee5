package testutils

import (
	"context"
	"fmt"

	"github.com/papercomputeco/ragembed/pkg/vector"
)

// UpsertCall is one recorded call to MockVectorDriver.Upsert.
type UpsertCall struct {
	Collection string
	Points     []vector.Point
}

// MockVectorDriver is a test vector driver that records upserts
type MockVectorDriver struct {
	// Calls holds every Upsert call, including failed ones.
	Calls []UpsertCall

	// FailIDs causes Upsert to fail for batches containing any listed id.
	FailIDs map[uint64]bool

	stored []vector.Point
	Closed bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		FailIDs: make(map[uint64]bool),
		stored:  make([]vector.Point, 0),
	}
}

func (m *MockVectorDriver) Upsert(_ context.Context, collection string, points []vector.Point) error {
	m.Calls = append(m.Calls, UpsertCall{Collection: collection, Points: points})

	for _, p := range points {
		if m.FailIDs[p.ID] {
			return fmt.Errorf("mock upsert failure for point %d", p.ID)
		}
	}

	m.stored = append(m.stored, points...)
	return nil
}

// Points returns the successfully stored points in write order.
func (m *MockVectorDriver) Points() []vector.Point {
	return m.stored
}

// IDs returns the ids of the successfully stored points in write order.
func (m *MockVectorDriver) IDs() []uint64 {
	ids := make([]uint64, len(m.stored))
	for i, p := range m.stored {
		ids[i] = p.ID
	}
	return ids
}

func (m *MockVectorDriver) Close() error {
	m.Closed = true
	return nil
}
