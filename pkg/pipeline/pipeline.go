// Package pipeline drives an ingest run: chunk a document into sections,
// embed each section and write one point per section.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/papercomputeco/ragembed/pkg/chunker"
	"github.com/papercomputeco/ragembed/pkg/embeddings"
	"github.com/papercomputeco/ragembed/pkg/eventstream"
	"github.com/papercomputeco/ragembed/pkg/eventstream/nop"
	"github.com/papercomputeco/ragembed/pkg/logger"
	"github.com/papercomputeco/ragembed/pkg/utils"
	"github.com/papercomputeco/ragembed/pkg/vector"
)

// Config configures a run.
type Config struct {
	// Model is the embedding model name, recorded in logs.
	Model string

	// Collection receives the points.
	Collection string

	// VectorSize is the embedding dimension. Required.
	VectorSize uint

	// MaxContextLength caps each section at this many characters before
	// embedding. Zero disables truncation.
	MaxContextLength uint

	// StartVectorID is the id of the first section's point.
	StartVectorID uint64

	// RunID tags events published for this run.
	RunID string
}

// Pipeline runs sections through an embedder and a vector writer, strictly
// one at a time.
type Pipeline struct {
	cfg       Config
	embedder  embeddings.Embedder
	writer    *vector.Writer
	publisher eventstream.Publisher
	logger    *slog.Logger
	progress  io.Writer
}

// New creates a pipeline. The pipeline does not take ownership of embedder
// or driver; callers close them.
func New(cfg Config, embedder embeddings.Embedder, driver vector.Driver, opts ...Option) (*Pipeline, error) {
	if cfg.VectorSize == 0 {
		return nil, errors.New("vector size must be greater than zero")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}

	writer, err := vector.NewWriter(driver, cfg.Collection, cfg.StartVectorID)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:       cfg,
		embedder:  embedder,
		writer:    writer,
		publisher: nop.NewPublisher(),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// RunFile opens path and runs it. Failing to open or read the file returns
// ErrInputAccess.
func (p *Pipeline) RunFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputAccess, err)
	}
	defer f.Close()

	var r io.Reader = f
	if p.progress != nil {
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInputAccess, err)
		}
		bar := newProgressBar(info.Size(), p.progress)
		defer bar.Finish()
		r = io.TeeReader(f, bar)
	}

	p.logger.Info("ingesting file",
		"path", path,
		"model", p.cfg.Model,
		"collection", p.cfg.Collection,
		"vector_size", p.cfg.VectorSize,
		"start_vector_id", p.cfg.StartVectorID,
	)

	return p.Run(ctx, r)
}

func newProgressBar(size int64, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("ingesting"),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Run processes every section of r in order. The sequence index starts at
// 0 and advances once per section whatever its outcome. Section failures
// are recorded in the Result; only a read error or cancellation stops the
// run early.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (*Result, error) {
	result := &Result{}
	var seq uint64

	for section, err := range chunker.Scan(r) {
		if err != nil {
			return result, fmt.Errorf("%w: reading input: %w", ErrInputAccess, err)
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.record(p.process(ctx, seq, section.Text))
		seq++
	}

	p.logger.Info("ingest finished",
		"sections", result.Sections,
		"upserted", result.Upserted,
		"skipped", result.Skipped,
		"embed_failed", result.EmbedFailed,
		"upsert_failed", result.UpsertFailed,
	)

	return result, nil
}

func (p *Pipeline) process(ctx context.Context, seq uint64, text string) Outcome {
	out := Outcome{Sequence: seq}
	id, err := p.writer.PointID(seq)
	if err != nil {
		p.logger.Error("section has no point id", "seq", seq, "error", err)
		out.Status = StatusUpsertFailed
		out.Chars = utils.RuneCount(text)
		out.Err = err
		p.publish(ctx, out)
		return out
	}
	out.PointID = id
	log := p.logger.With("seq", seq, "id", out.PointID)

	if limit := p.cfg.MaxContextLength; limit > 0 {
		if cut, ok := utils.TruncateRunes(text, int(limit)); ok {
			log.Warn("section truncated",
				"chars", utils.RuneCount(text),
				"max_context_length", limit,
			)
			text = cut
			out.Truncated = true
		}
	}
	out.Chars = utils.RuneCount(text)

	log.Debug("embedding section", "chars", out.Chars, "preview", utils.Truncate(text, 40))

	vec, err := p.embedder.Embed(ctx, text)
	switch {
	case errors.Is(err, embeddings.ErrRecoverable):
		log.Info("section skipped", "reason", err)
		out.Status = StatusSkipped
		out.Err = err
	case err != nil:
		log.Error("section embedding failed", "error", err)
		out.Status = StatusEmbedFailed
		out.Err = err
	default:
		if _, err := p.writer.Write(ctx, seq, vec, text); err != nil {
			log.Error("section upsert failed", "error", err)
			out.Status = StatusUpsertFailed
			out.Err = err
		} else {
			log.Info("section upserted", "chars", out.Chars)
			out.Status = StatusUpserted
		}
	}

	p.publish(ctx, out)
	return out
}

func (p *Pipeline) publish(ctx context.Context, out Outcome) {
	eventType := eventstream.EventTypeSectionFailed
	switch out.Status {
	case StatusUpserted:
		eventType = eventstream.EventTypeSectionUpserted
	case StatusSkipped:
		eventType = eventstream.EventTypeSectionSkipped
	}

	event := eventstream.NewSectionEvent(eventType)
	event.RunID = p.cfg.RunID
	event.Collection = p.writer.Collection()
	event.Sequence = out.Sequence
	event.PointID = out.PointID
	event.Status = string(out.Status)
	event.Truncated = out.Truncated
	event.Chars = out.Chars
	if out.Err != nil {
		event.Error = out.Err.Error()
	}

	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Warn("failed to publish section event",
			"seq", out.Sequence,
			"event_type", eventType,
			"error", err,
		)
	}
}
