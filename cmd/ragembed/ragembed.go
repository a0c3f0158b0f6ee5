// Package ragembedcmder is the root ragembed command.
package ragembedcmder

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/ragembed/cmd/ragembed/config"
	ingestcmder "github.com/papercomputeco/ragembed/cmd/ragembed/ingest"
	initcmder "github.com/papercomputeco/ragembed/cmd/ragembed/init"
	versioncmder "github.com/papercomputeco/ragembed/cmd/version"
)

const ragembedLongDesc string = `ragembed turns text documents into vector store points.

Documents are split into sections at blank lines (fenced code blocks stay
whole), each section is embedded by an inference engine, and one point per
section is upserted into a vector store.

  ragembed init                               Create a local .ragembed/ config
  ragembed ingest <model> <collection> <size> <file>
  ragembed config list                        Show resolved configuration`

const ragembedShortDesc string = "ragembed - document ingestion for RAG"

func NewRagembedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ragembed",
		Short:        ragembedShortDesc,
		Long:         ragembedLongDesc,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// A .env in the working directory may carry API keys.
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("loading .env: %w", err)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .ragembed/ config directory")
	cmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")

	// Add subcommands
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
