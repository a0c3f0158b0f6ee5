package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/papercomputeco/ragembed/pkg/inference"
	"github.com/papercomputeco/ragembed/pkg/logger"
)

// MinOutputSize is the smallest output buffer the adapter reads into:
// room for 4096 tokens at 15 bytes each plus framing.
const MinOutputSize = 4096*15 + 128

// AdapterConfig configures an Adapter.
type AdapterConfig struct {
	// VectorSize is the number of leading entries taken from the engine's
	// embedding. Required.
	VectorSize uint

	// OutputSize overrides the output buffer size. Values below the size
	// required for VectorSize are raised to it.
	OutputSize int
}

// Adapter is an Embedder over a single inference.ExecutionContext. The
// context is owned by the adapter for its whole life and every Embed call
// holds the adapter's lock across input, compute and output.
type Adapter struct {
	mu         sync.Mutex
	ectx       inference.ExecutionContext
	vectorSize int
	buf        []byte
	logger     *slog.Logger
}

type embeddingOutput struct {
	Embedding []float64 `json:"embedding"`
}

// OutputSizeFor returns the output buffer size used for vectorSize entries.
func OutputSizeFor(vectorSize uint) int {
	return max(MinOutputSize, int(vectorSize)*32+128)
}

// NewAdapter wraps ectx. The adapter takes ownership of ectx and closes it
// in Close.
func NewAdapter(ectx inference.ExecutionContext, cfg AdapterConfig, log *slog.Logger) (*Adapter, error) {
	if ectx == nil {
		return nil, errors.New("execution context is required")
	}
	if cfg.VectorSize == 0 {
		return nil, errors.New("vector size must be greater than zero")
	}
	if log == nil {
		log = logger.Nop()
	}

	size := max(cfg.OutputSize, OutputSizeFor(cfg.VectorSize))

	return &Adapter{
		ectx:       ectx,
		vectorSize: int(cfg.VectorSize),
		buf:        make([]byte, size),
		logger:     log,
	}, nil
}

// Embed runs one inference over text and returns exactly VectorSize entries.
//
// Context-full and prompt-too-long engine errors return ErrRecoverable
// without touching the output tensor, which still holds the previous
// section's result. Other engine errors return ErrInference.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ectx.SetInput(0, []byte(text)); err != nil {
		a.logger.Error("failed to set input tensor", "error", err)
		return nil, fmt.Errorf("%w: set input: %v", ErrInference, err)
	}

	if err := a.ectx.Compute(ctx); err != nil {
		if inference.IsRecoverable(err) {
			a.logger.Info("engine rejected section", "reason", err)
			return nil, fmt.Errorf("%w: %v", ErrRecoverable, err)
		}
		a.logger.Error("inference failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}

	n, err := a.ectx.GetOutput(0, a.buf)
	if err != nil {
		a.logger.Error("failed to read output tensor", "error", err)
		return nil, fmt.Errorf("%w: get output: %v", ErrInference, err)
	}

	return a.decode(a.buf[:n])
}

func (a *Adapter) decode(raw []byte) ([]float32, error) {
	var out embeddingOutput
	if err := json.Unmarshal([]byte(strings.ToValidUTF8(string(raw), "�")), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputParse, err)
	}

	if out.Embedding == nil {
		return nil, fmt.Errorf("%w: missing embedding field", ErrOutputParse)
	}

	if len(out.Embedding) < a.vectorSize {
		return nil, fmt.Errorf("%w: embedding has %d entries, need %d", ErrOutputParse, len(out.Embedding), a.vectorSize)
	}

	vec := make([]float32, a.vectorSize)
	for i := range vec {
		vec[i] = float32(out.Embedding[i])
	}
	return vec, nil
}

// Close releases the execution context.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ectx.Close()
}

var _ Embedder = (*Adapter)(nil)
