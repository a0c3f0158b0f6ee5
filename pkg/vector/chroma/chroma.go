// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/papercomputeco/ragembed/pkg/vector"
)

const (
	// DefaultMaxRetries is the number of attempts made to reach Chroma on startup.
	DefaultMaxRetries = 5

	// DefaultRetryDelay is the first backoff delay between startup attempts.
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay caps the startup backoff.
	DefaultMaxRetryDelay = 5 * time.Second

	collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"
)

// errRetryable marks startup failures worth another attempt.
var errRetryable = errors.New("chroma unavailable")

// Driver implements vector.Driver using Chroma's REST API. Collections must
// already exist; their ids are resolved on first use and cached.
type Driver struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu          sync.Mutex
	collections map[string]string
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// Collection, when set, is resolved while constructing the driver,
	// retrying until Chroma answers.
	Collection string

	// MaxRetries is the number of startup attempts. Defaults to DefaultMaxRetries.
	MaxRetries int

	// RetryDelay is the initial delay between startup attempts, doubled
	// after each failure up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	// Timeout bounds each HTTP request. Defaults to 60s.
	Timeout time.Duration
}

// NewDriver creates a new Chroma vector driver.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("chroma URL is required")
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	d := &Driver{
		baseURL: c.URL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:      logger,
		collections: make(map[string]string),
	}

	collection := c.Collection
	if collection == "" {
		logger.Info("chroma vector driver configured", "url", c.URL)
		return d, nil
	}

	id, err := d.resolveWithRetry(context.Background(), collection, c)
	if err != nil {
		return nil, err
	}

	logger.Info("connected to Chroma",
		"url", c.URL,
		"collection", collection,
		"collection_id", id,
	)

	return d, nil
}

func (d *Driver) resolveWithRetry(ctx context.Context, collection string, c Config) (string, error) {
	attempts := c.MaxRetries
	if attempts <= 0 {
		attempts = DefaultMaxRetries
	}
	delay := c.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	maxDelay := c.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxRetryDelay
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		id, err := d.collectionID(ctx, collection)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, errRetryable) {
			return "", err
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		d.logger.Warn("chroma not ready, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		time.Sleep(delay)
		delay = min(delay*2, maxDelay)
	}

	return "", fmt.Errorf("%w: chroma at %s after %d attempts: %w", vector.ErrConnection, d.baseURL, attempts, lastErr)
}

// collectionID returns the id of an existing collection, from cache when
// possible.
func (d *Driver) collectionID(ctx context.Context, name string) (string, error) {
	d.mu.Lock()
	id, ok := d.collections[name]
	d.mu.Unlock()
	if ok {
		return id, nil
	}

	url := fmt.Sprintf("%s%s/%s", d.baseURL, collectionsPath, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating get request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: sending get request: %w", errRetryable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %q", vector.ErrCollectionNotFound, name)
	case resp.StatusCode >= http.StatusInternalServerError:
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", errRetryable, resp.StatusCode, string(body))
	default:
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("getting collection %q: status %d: %s", name, resp.StatusCode, string(body))
	}

	var collection chromaCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return "", fmt.Errorf("decoding collection response: %w", err)
	}

	d.mu.Lock()
	d.collections[name] = collection.ID
	d.mu.Unlock()

	return collection.ID, nil
}

// Upsert stores points in collection. Ids are sent as decimal strings, the
// source payload entry becomes the record's document and the remaining
// payload entries its metadata.
func (d *Driver) Upsert(ctx context.Context, collection string, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	collectionID, err := d.collectionID(ctx, collection)
	if err != nil {
		return fmt.Errorf("%w: %w", vector.ErrUpsert, err)
	}

	reqBody := chromaUpsertRequest{
		IDs:        make([]string, len(points)),
		Embeddings: make([][]float32, len(points)),
		Documents:  make([]string, len(points)),
	}

	var metadatas []map[string]any
	for i, p := range points {
		reqBody.IDs[i] = strconv.FormatUint(p.ID, 10)
		reqBody.Embeddings[i] = p.Vector

		meta := make(map[string]any)
		for k, v := range p.Payload {
			if k == vector.PayloadSourceKey {
				if s, ok := v.(string); ok {
					reqBody.Documents[i] = s
					continue
				}
			}
			meta[k] = v
		}
		if len(meta) > 0 {
			if metadatas == nil {
				metadatas = make([]map[string]any, len(points))
			}
			metadatas[i] = meta
		}
	}
	reqBody.Metadatas = metadatas

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("%w: marshaling upsert request: %w", vector.ErrInvalidPoint, err)
	}

	url := fmt.Sprintf("%s%s/%s/upsert", d.baseURL, collectionsPath, collectionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("%w: creating upsert request: %w", vector.ErrUpsert, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sending upsert request: %w", vector.ErrUpsert, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", vector.ErrUpsert, resp.StatusCode, string(body))
	}

	d.logger.Debug("upserted points to chroma",
		"collection", collection,
		"count", len(points),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	d.httpClient.CloseIdleConnections()
	return nil
}
