// Package inference defines the boundary to a neural inference engine that
// turns text into embeddings. An engine is driven through a tensor-style
// ExecutionContext: load input tensor 0, run a blocking compute step, then
// read output tensor 0.
package inference

import (
	"context"
	"time"
)

// DefaultContextSize is the engine context window requested when none is
// configured.
const DefaultContextSize uint = 4096

// ExecutionContext is a single mutable inference session. It is not safe
// for concurrent use; callers own it exclusively for the duration of a run.
type ExecutionContext interface {
	// SetInput loads data as the input tensor at index.
	SetInput(index int, data []byte) error

	// Compute runs inference over the current input. It blocks until the
	// engine returns. ErrContextFull and ErrPromptTooLong are recoverable;
	// any other error is an engine failure. On error the output tensor is
	// left untouched and may hold the result of an earlier call.
	Compute(ctx context.Context) error

	// GetOutput copies the output tensor at index into buf and returns the
	// number of bytes written.
	GetOutput(index int, buf []byte) (int, error)

	// Close releases the session.
	Close() error
}

// Options configures an engine session. It replaces ad hoc key/value engine
// configuration with typed fields.
type Options struct {
	// Model is the engine-side model identifier.
	Model string

	// Embedding asks the engine for embeddings rather than completions.
	Embedding bool

	// ContextSize is the requested context window in tokens. Zero leaves the
	// engine default.
	ContextSize uint

	// Target is the engine endpoint URL.
	Target string

	// APIKey authenticates against hosted engines. Optional.
	APIKey string

	// Timeout bounds a single compute call. Zero means no timeout.
	Timeout time.Duration
}
