package inference

import (
	"encoding/json"
	"fmt"
)

// Tensors holds the input and output tensor 0 of a session. Backends embed
// it to get SetInput and GetOutput for free and only implement Compute.
type Tensors struct {
	input  []byte
	loaded bool
	output []byte
}

// SetInput loads data as input tensor 0.
func (t *Tensors) SetInput(index int, data []byte) error {
	if index != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTensor, index)
	}
	t.input = append(t.input[:0], data...)
	t.loaded = true
	return nil
}

// Input returns input tensor 0, or ErrNoInput if nothing was loaded.
func (t *Tensors) Input() ([]byte, error) {
	if !t.loaded {
		return nil, ErrNoInput
	}
	return t.input, nil
}

// GetOutput copies output tensor 0 into buf. Output larger than buf is cut
// at len(buf).
func (t *Tensors) GetOutput(index int, buf []byte) (int, error) {
	if index != 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTensor, index)
	}
	return copy(buf, t.output), nil
}

// SetOutput replaces output tensor 0.
func (t *Tensors) SetOutput(data []byte) {
	t.output = append(t.output[:0], data...)
}

// embeddingOutput is the structured form of output tensor 0.
type embeddingOutput struct {
	Embedding []float32 `json:"embedding"`
}

// EncodeEmbedding renders an embedding as output tensor bytes:
// {"embedding":[...]}.
func EncodeEmbedding(embedding []float32) ([]byte, error) {
	data, err := json.Marshal(embeddingOutput{Embedding: embedding})
	if err != nil {
		return nil, fmt.Errorf("encoding embedding output: %w", err)
	}
	return data, nil
}
