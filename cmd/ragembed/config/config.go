// Package configcmder provides the config command for managing persistent
// ragembed configuration stored in the .ragembed/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent ragembed configuration.

Configuration is stored as config.toml in the .ragembed/ directory and
provides default values for ingest flags. CLI flags and RAGEMBED_*
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  engine.provider, engine.target, engine.api_key, engine.context_size,
  engine.timeout, engine.output_buffer_size,
  vector_store.provider, vector_store.target, vector_store.api_key,
  ingest.max_context_length, ingest.start_vector_id,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  ragembed config set <key> <value>    Set a configuration value
  ragembed config get <key>            Get a configuration value
  ragembed config list                 List all configuration values

Examples:
  ragembed config set vector_store.provider chroma
  ragembed config set ingest.max_context_length 2000
  ragembed config get engine.target
  ragembed config list`

const configShortDesc string = "Manage persistent ragembed configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
