package pipeline

import (
	"io"
	"log/slog"

	"github.com/papercomputeco/ragembed/pkg/eventstream"
)

// Option configures a Pipeline created with New.
type Option func(*Pipeline)

// WithLogger sets the run logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithPublisher sets the diagnostic event publisher. Defaults to none.
func WithPublisher(pub eventstream.Publisher) Option {
	return func(p *Pipeline) {
		p.publisher = pub
	}
}

// WithProgress renders a byte progress bar to w while RunFile reads its input.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) {
		p.progress = w
	}
}
