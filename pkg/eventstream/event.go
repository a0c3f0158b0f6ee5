// Package eventstream publishes per-section diagnostic events for ingest runs.
package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeSectionUpserted is emitted after a section's point is written.
	EventTypeSectionUpserted = "ragembed.section.upserted"

	// EventTypeSectionSkipped is emitted when the engine rejected a section
	// as too large for its context.
	EventTypeSectionSkipped = "ragembed.section.skipped"

	// EventTypeSectionFailed is emitted when embedding or upserting a
	// section failed.
	EventTypeSectionFailed = "ragembed.section.failed"
)

// SectionEvent is a transport-neutral event payload for one processed section.
type SectionEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	RunID         string    `json:"run_id"`
	Collection    string    `json:"collection"`
	Sequence      uint64    `json:"sequence"`
	PointID       uint64    `json:"point_id"`
	Status        string    `json:"status"`
	Truncated     bool      `json:"truncated"`
	Chars         int       `json:"chars"`
	Error         string    `json:"error,omitempty"`
}

// NewSectionEvent returns an event of eventType stamped with a fresh id and
// the current time.
func NewSectionEvent(eventType string) *SectionEvent {
	return &SectionEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
	}
}
