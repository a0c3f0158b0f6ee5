package testutils

import (
	"context"
	"errors"

	"github.com/papercomputeco/ragembed/pkg/eventstream"
)

// RecordingPublisher is an eventstream.Publisher that keeps every event.
type RecordingPublisher struct {
	Events []*eventstream.SectionEvent

	// Fail makes every Publish return an error after recording.
	Fail bool

	Closed bool
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(_ context.Context, event *eventstream.SectionEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	p.Events = append(p.Events, event)
	if p.Fail {
		return errors.New("mock publish failure")
	}
	return nil
}

// Types returns the recorded event types in order.
func (p *RecordingPublisher) Types() []string {
	types := make([]string, len(p.Events))
	for i, e := range p.Events {
		types[i] = e.EventType
	}
	return types
}

func (p *RecordingPublisher) Close() error {
	p.Closed = true
	return nil
}
