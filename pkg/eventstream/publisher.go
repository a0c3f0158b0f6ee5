package eventstream

import "context"

// Publisher publishes section events to an event stream backend.
type Publisher interface {
	Publish(ctx context.Context, event *SectionEvent) error
	Close() error
}
