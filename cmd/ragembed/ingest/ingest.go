// Package ingestcmder provides the ingest command: chunk a document, embed
// every section and upsert one point per section into a vector store.
package ingestcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/papercomputeco/ragembed/pkg/cliui"
	"github.com/papercomputeco/ragembed/pkg/config"
	"github.com/papercomputeco/ragembed/pkg/embeddings"
	"github.com/papercomputeco/ragembed/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/ragembed/pkg/eventstream/utils"
	"github.com/papercomputeco/ragembed/pkg/inference"
	inferenceutils "github.com/papercomputeco/ragembed/pkg/inference/utils"
	"github.com/papercomputeco/ragembed/pkg/logger"
	"github.com/papercomputeco/ragembed/pkg/pipeline"
	"github.com/papercomputeco/ragembed/pkg/vector"
	vectorutils "github.com/papercomputeco/ragembed/pkg/vector/utils"
)

type ingestCommander struct {
	model      string
	collection string
	vectorSize uint
	file       string

	maxContextLength uint
	startVectorID    uint64

	engineProvider   string
	engineTarget     string
	engineAPIKey     string
	engineTimeout    string
	contextSize      uint
	outputBufferSize uint

	vectorStoreProvider string
	vectorStoreTarget   string
	vectorStoreAPIKey   string

	eventsProvider string
	eventsBrokers  string
	eventsTopic    string

	progress bool
	logFile  string
	debug    bool
	logJSON  bool

	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

const ingestLongDesc string = `Ingest a text document into a vector store.

The document is split into sections at blank lines. Fenced code blocks
(lines starting with three backticks) are kept whole even when they contain
blank lines. Every section is embedded with the given model and written as
one point whose id is start-vector-id plus the section's position, with the
section text stored under the "source" payload key.

Sections the engine rejects as too long are skipped; embedding and upsert
failures are logged and the run continues. The command only fails when its
arguments are invalid, a backend cannot be reached at startup, or the input
file cannot be read.

Flags override environment variables (RAGEMBED_*), which override values in
.ragembed/config.toml.

Examples:
  ragembed ingest nomic-embed-text docs 768 README.md
  ragembed ingest all-minilm notes 384 notes.md --maximum-context-length 1000
  ragembed ingest nomic-embed-text docs 768 guide.md --start-vector-id 5000 \
    --vector-store-provider chroma --vector-store-target http://localhost:8000`

const ingestShortDesc string = "Chunk, embed and upsert a document"

// ingestFlags is the registry of config-backed ingest flags.
var ingestFlags = config.FlagSet{
	config.FlagMaxContextLength: {
		Name:        "maximum-context-length",
		ViperKey:    "ingest.max_context_length",
		Description: "Truncate sections to this many characters before embedding (0 disables)",
	},
	config.FlagStartVectorID: {
		Name:        "start-vector-id",
		ViperKey:    "ingest.start_vector_id",
		Description: "Point id of the first section",
	},
	config.FlagEngineProvider: {
		Name:        "engine-provider",
		ViperKey:    "engine.provider",
		Description: "Inference engine provider (ollama, openai)",
	},
	config.FlagEngineTarget: {
		Name:        "engine-target",
		ViperKey:    "engine.target",
		Description: "Inference engine URL",
	},
	config.FlagEngineTimeout: {
		Name:        "engine-timeout",
		ViperKey:    "engine.timeout",
		Description: "Per-section engine timeout, e.g. 30s (empty disables)",
	},
	config.FlagContextSize: {
		Name:        "context-size",
		ViperKey:    "engine.context_size",
		Description: "Engine context window in tokens",
	},
	config.FlagVectorStoreProv: {
		Name:        "vector-store-provider",
		ViperKey:    "vector_store.provider",
		Description: "Vector store provider (qdrant, chroma, sqlite, pgvector)",
	},
	config.FlagVectorStoreTgt: {
		Name:        "vector-store-target",
		ViperKey:    "vector_store.target",
		Description: "Vector store address, URL, file path or connection string",
	},
	config.FlagEventsProvider: {
		Name:        "events-provider",
		ViperKey:    "events.provider",
		Description: "Section event publisher (none, kafka)",
	},
	config.FlagEventsBrokers: {
		Name:        "events-brokers",
		ViperKey:    "events.brokers",
		Description: "Comma-separated Kafka brokers",
	},
	config.FlagEventsTopic: {
		Name:        "events-topic",
		ViperKey:    "events.topic",
		Description: "Kafka topic for section events",
	},
}

var ingestFlagKeys = []string{
	config.FlagMaxContextLength,
	config.FlagStartVectorID,
	config.FlagEngineProvider,
	config.FlagEngineTarget,
	config.FlagEngineTimeout,
	config.FlagContextSize,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest <model_name> <collection_name> <vector_size> <file_name>",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.MatchAll(cobra.ExactArgs(4), validateVectorSize),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, ingestFlags, ingestFlagKeys)
			cmder.applyViper(v)
			return config.ValidateStartVectorID(cmder.startVectorID)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.model = args[0]
			cmder.collection = args[1]
			size, _ := strconv.ParseUint(args[2], 10, 64)
			cmder.vectorSize = uint(size)
			cmder.file = args[3]

			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.logJSON, _ = cmd.Flags().GetBool("log-json")
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()

			return cmder.run(cmd.Context())
		},
	}

	config.AddUintFlag(cmd, ingestFlags, config.FlagMaxContextLength, &cmder.maxContextLength)
	config.AddUint64Flag(cmd, ingestFlags, config.FlagStartVectorID, &cmder.startVectorID)
	config.AddStringFlag(cmd, ingestFlags, config.FlagEngineProvider, &cmder.engineProvider)
	config.AddStringFlag(cmd, ingestFlags, config.FlagEngineTarget, &cmder.engineTarget)
	config.AddStringFlag(cmd, ingestFlags, config.FlagEngineTimeout, &cmder.engineTimeout)
	config.AddUintFlag(cmd, ingestFlags, config.FlagContextSize, &cmder.contextSize)
	config.AddStringFlag(cmd, ingestFlags, config.FlagVectorStoreProv, &cmder.vectorStoreProvider)
	config.AddStringFlag(cmd, ingestFlags, config.FlagVectorStoreTgt, &cmder.vectorStoreTarget)
	config.AddStringFlag(cmd, ingestFlags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, ingestFlags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, ingestFlags, config.FlagEventsTopic, &cmder.eventsTopic)
	cmd.Flags().BoolVar(&cmder.progress, "progress", false, "Show a byte progress bar on stderr")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func validateVectorSize(_ *cobra.Command, args []string) error {
	n, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil || n == 0 {
		return fmt.Errorf("vector_size must be a positive integer, got %q", args[2])
	}
	return nil
}

// applyViper resolves every config-backed setting through viper's
// flag > env > file > default chain.
func (c *ingestCommander) applyViper(v *viper.Viper) {
	c.maxContextLength = v.GetUint("ingest.max_context_length")
	c.startVectorID = v.GetUint64("ingest.start_vector_id")

	c.engineProvider = v.GetString("engine.provider")
	c.engineTarget = v.GetString("engine.target")
	c.engineAPIKey = v.GetString("engine.api_key")
	c.engineTimeout = v.GetString("engine.timeout")
	c.contextSize = v.GetUint("engine.context_size")
	c.outputBufferSize = v.GetUint("engine.output_buffer_size")

	c.vectorStoreProvider = v.GetString("vector_store.provider")
	c.vectorStoreTarget = v.GetString("vector_store.target")
	c.vectorStoreAPIKey = v.GetString("vector_store.api_key")

	c.eventsProvider = v.GetString("events.provider")
	c.eventsBrokers = v.GetString("events.brokers")
	c.eventsTopic = v.GetString("events.topic")

	if c.engineAPIKey == "" && c.engineProvider == "openai" {
		c.engineAPIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func (c *ingestCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, closeLog, err := c.newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	runID := uuid.NewString()
	c.logger = logger.ForRun(log, runID)

	// Fail on an unreadable input before any backend is contacted.
	if _, err := os.Stat(c.file); err != nil {
		return fmt.Errorf("%w: %w", pipeline.ErrInputAccess, err)
	}

	timeout, err := config.EngineConfig{Timeout: c.engineTimeout}.TimeoutDuration()
	if err != nil {
		return err
	}

	var ectx inference.ExecutionContext
	err = c.step(fmt.Sprintf("Opening %s engine for %s", c.engineProvider, c.model), func() error {
		var err error
		ectx, err = inferenceutils.NewExecutionContext(&inferenceutils.NewExecutionContextOpts{
			ProviderType: c.engineProvider,
			Options: inference.Options{
				Model:       c.model,
				Embedding:   true,
				ContextSize: c.contextSize,
				Target:      c.engineTarget,
				APIKey:      c.engineAPIKey,
				Timeout:     timeout,
			},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("creating inference engine: %w", err)
	}

	adapter, err := embeddings.NewAdapter(ectx, embeddings.AdapterConfig{
		VectorSize: c.vectorSize,
		OutputSize: int(c.outputBufferSize),
	}, c.logger)
	if err != nil {
		_ = ectx.Close()
		return fmt.Errorf("creating embedding adapter: %w", err)
	}
	defer adapter.Close()

	var driver vector.Driver
	err = c.step(fmt.Sprintf("Connecting to %s vector store", c.vectorStoreProvider), func() error {
		var err error
		driver, err = vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
			ProviderType: c.vectorStoreProvider,
			Target:       c.vectorStoreTarget,
			APIKey:       c.vectorStoreAPIKey,
			Collection:   c.collection,
			Dimensions:   c.vectorSize,
			Logger:       c.logger,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}
	defer driver.Close()

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: c.eventsProvider,
		Brokers:      config.SplitList(c.eventsBrokers),
		Topic:        c.eventsTopic,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	p, err := pipeline.New(pipeline.Config{
		Model:            c.model,
		Collection:       c.collection,
		VectorSize:       c.vectorSize,
		MaxContextLength: c.maxContextLength,
		StartVectorID:    c.startVectorID,
		RunID:            runID,
	}, adapter, driver, c.pipelineOptions(publisher)...)
	if err != nil {
		return err
	}

	result, err := p.RunFile(ctx, c.file)
	if result != nil {
		fmt.Fprintln(c.out, result.Summary())
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("ingest interrupted")
		}
		return err
	}

	return nil
}

func (c *ingestCommander) pipelineOptions(publisher eventstream.Publisher) []pipeline.Option {
	opts := []pipeline.Option{
		pipeline.WithLogger(c.logger),
		pipeline.WithPublisher(publisher),
	}
	if c.progress {
		opts = append(opts, pipeline.WithProgress(c.errOut))
	}
	return opts
}

// newLogger builds the run logger on stderr: JSON with --log-json, pretty on a
// terminal, text otherwise. --log-file adds a JSON copy of every record.
func (c *ingestCommander) newLogger() (*slog.Logger, func(), error) {
	console := logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(c.logJSON),
		logger.WithPretty(isTerminal(c.errOut)),
		logger.WithWriter(c.errOut),
	)

	if c.logFile == "" {
		return console, func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	)
	return logger.Multi(console, file), func() { _ = f.Close() }, nil
}

// step runs fn behind a cliui spinner, unless logs are JSON.
func (c *ingestCommander) step(msg string, fn func() error) error {
	if c.logJSON || !isTerminal(c.errOut) {
		return fn()
	}
	return cliui.Step(c.errOut, msg, fn)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
