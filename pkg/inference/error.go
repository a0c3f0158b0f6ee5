package inference

import (
	"errors"
	"strings"
)

var (
	// ErrContextFull is returned by Compute when the engine's context window
	// is exhausted.
	ErrContextFull = errors.New("context full")

	// ErrPromptTooLong is returned by Compute when the input does not fit in
	// the context window.
	ErrPromptTooLong = errors.New("prompt too long")

	// ErrBackend wraps any other engine failure.
	ErrBackend = errors.New("inference backend error")

	// ErrInvalidTensor is returned for tensor indexes other than 0.
	ErrInvalidTensor = errors.New("invalid tensor index")

	// ErrNoInput is returned by Compute when no input tensor was loaded.
	ErrNoInput = errors.New("no input tensor loaded")
)

// IsRecoverable reports whether err is one of the recoverable compute
// conditions.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrContextFull) || errors.Is(err, ErrPromptTooLong)
}

// ClassifyMessage maps an engine error message onto ErrContextFull or
// ErrPromptTooLong. It returns nil when the message matches neither.
// Engines word these conditions differently (llama.cpp, LlamaEdge, Ollama),
// so matching is on lowercase fragments.
func ClassifyMessage(msg string) error {
	m := strings.ToLower(msg)

	switch {
	case strings.Contains(m, "context full"),
		strings.Contains(m, "exceeds the available context"),
		strings.Contains(m, "exceed_context_size"),
		strings.Contains(m, "kv cache"):
		return ErrContextFull

	case strings.Contains(m, "prompt too long"),
		strings.Contains(m, "too long"),
		strings.Contains(m, "too large"),
		strings.Contains(m, "exceeds the context length"),
		strings.Contains(m, "exceeds maximum context length"):
		return ErrPromptTooLong
	}

	return nil
}
