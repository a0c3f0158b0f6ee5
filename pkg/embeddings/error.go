package embeddings

import "errors"

var (
	// ErrRecoverable is returned when the engine rejected the input in a way
	// that only affects this section (context full, prompt too long). The
	// section should be skipped.
	ErrRecoverable = errors.New("recoverable inference error")

	// ErrInference is returned for any other engine failure.
	ErrInference = errors.New("inference failed")

	// ErrOutputParse is returned when the output tensor does not hold a
	// usable embedding.
	ErrOutputParse = errors.New("embedding output parse failed")
)
