// Package ollama implements an inference.ExecutionContext backed by Ollama's
// embedding API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/papercomputeco/ragembed/pkg/inference"
)

const (
	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"
)

// Context is an Ollama-backed execution context. Each Compute posts the
// current input tensor to /api/embed and stores the first embedding in the
// output tensor.
type Context struct {
	inference.Tensors

	baseURL     string
	model       string
	contextSize uint
	httpClient  *http.Client
}

// embedRequest is the request body for Ollama's embedding API.
type embedRequest struct {
	Model    string        `json:"model"`
	Input    string        `json:"input"`
	Truncate bool          `json:"truncate"`
	Options  *embedOptions `json:"options,omitempty"`
}

type embedOptions struct {
	NumCtx uint `json:"num_ctx,omitempty"`
}

// embedResponse is the response from Ollama's embedding API.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewContext creates a new execution context using Ollama's embedding API.
func NewContext(opts inference.Options) (*Context, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}
	if !opts.Embedding {
		return nil, fmt.Errorf("ollama backend only supports embedding sessions")
	}

	baseURL := opts.Target
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Context{
		baseURL:     baseURL,
		model:       opts.Model,
		contextSize: opts.ContextSize,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}, nil
}

// Compute embeds the current input tensor.
func (c *Context) Compute(ctx context.Context) error {
	input, err := c.Input()
	if err != nil {
		return err
	}

	reqBody := embedRequest{
		Model: c.model,
		Input: string(input),
		// Overlong input must surface as an error rather than be silently cut.
		Truncate: false,
	}
	if c.contextSize > 0 {
		reqBody.Options = &embedOptions{NumCtx: c.contextSize}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("%w: marshaling request: %v", inference.ErrBackend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embed", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", inference.ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sending request: %v", inference.ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		msg := string(body)
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Error != "" {
			msg = er.Error
		}
		if known := inference.ClassifyMessage(msg); known != nil {
			return fmt.Errorf("%w: %s", known, msg)
		}
		return fmt.Errorf("%w: ollama returned status %d: %s", inference.ErrBackend, resp.StatusCode, msg)
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return fmt.Errorf("%w: decoding response: %v", inference.ErrBackend, err)
	}

	if len(embedResp.Embeddings) == 0 {
		return fmt.Errorf("%w: no embeddings returned", inference.ErrBackend)
	}

	out, err := inference.EncodeEmbedding(embedResp.Embeddings[0])
	if err != nil {
		return fmt.Errorf("%w: %v", inference.ErrBackend, err)
	}
	c.SetOutput(out)

	return nil
}

// Close releases resources held by the context.
func (c *Context) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

var _ inference.ExecutionContext = (*Context)(nil)
