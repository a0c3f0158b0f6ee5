// Package openai implements an inference.ExecutionContext against any
// OpenAI-compatible embeddings endpoint, such as a llama.cpp or LlamaEdge
// server hosting a GGUF embedding model.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/ragembed/pkg/inference"
)

// DefaultBaseURL points at a llama.cpp server on its default port.
const DefaultBaseURL = "http://localhost:8080/v1"

// Context is an execution context that calls /embeddings for every Compute.
type Context struct {
	inference.Tensors

	client *goopenai.Client
	model  goopenai.EmbeddingModel
}

// NewContext creates an OpenAI-compatible execution context.
func NewContext(opts inference.Options) (*Context, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("openai model is required")
	}
	if !opts.Embedding {
		return nil, fmt.Errorf("openai backend only supports embedding sessions")
	}

	cfg := goopenai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = DefaultBaseURL
	if opts.Target != "" {
		cfg.BaseURL = opts.Target
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &Context{
		client: goopenai.NewClientWithConfig(cfg),
		model:  goopenai.EmbeddingModel(opts.Model),
	}, nil
}

// Compute embeds the current input tensor.
func (c *Context) Compute(ctx context.Context) error {
	input, err := c.Input()
	if err != nil {
		return err
	}

	resp, err := c.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: []string{string(input)},
		Model: c.model,
	})
	if err != nil {
		return classify(err)
	}

	if len(resp.Data) == 0 {
		return fmt.Errorf("%w: no embeddings returned", inference.ErrBackend)
	}

	out, err := inference.EncodeEmbedding(resp.Data[0].Embedding)
	if err != nil {
		return fmt.Errorf("%w: %v", inference.ErrBackend, err)
	}
	c.SetOutput(out)

	return nil
}

// Close is a no-op; the client holds no session state.
func (c *Context) Close() error {
	return nil
}

// classify maps client errors onto the inference sentinels.
func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		if known := inference.ClassifyMessage(apiErr.Message); known != nil {
			return fmt.Errorf("%w: %s", known, apiErr.Message)
		}
		return fmt.Errorf("%w: status %d: %s", inference.ErrBackend, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		if known := inference.ClassifyMessage(reqErr.Error()); known != nil {
			return fmt.Errorf("%w: %v", known, reqErr)
		}
		return fmt.Errorf("%w: status %d: %v", inference.ErrBackend, reqErr.HTTPStatusCode, reqErr)
	}

	return fmt.Errorf("%w: %v", inference.ErrBackend, err)
}

var _ inference.ExecutionContext = (*Context)(nil)
