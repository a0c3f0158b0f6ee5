package configcmder

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragembed/pkg/cliui"
	"github.com/papercomputeco/ragembed/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file stored in
the .ragembed/ directory. Run "ragembed init" first to create a local
directory. Keys use dotted notation matching the TOML section structure.

Examples:
  ragembed config set engine.provider openai
  ragembed config set engine.target http://localhost:8080/v1
  ragembed config set engine.timeout 45s
  ragembed config set events.brokers kafka-1:9092,kafka-2:9092`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(cmd.OutOrStdout(), args[0], args[1], configDir)
		},
		ValidArgsFunction: completeKeys,
	}

	return cmd
}

func runSet(w io.Writer, key, value, configDir string) error {
	if !config.IsValidConfigKey(key) {
		return unknownKeyError(key)
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	target := cfger.GetTarget()
	if target == "" {
		return errors.New("no .ragembed directory found: run \"ragembed init\" or pass --config-dir")
	}
	printTarget(w, target)

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Set %s\n\n", cliui.SuccessMark, cliui.KeyValue(key, value))
	return nil
}
