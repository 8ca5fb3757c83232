package main

import (
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"golang.org/x/exp/maps"

	"github.com/spf13/cobra"
	"github.com/user/storynest/internal/config"
)

func init() {
	configCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show every configuration value",
			Args:  cobra.NoArgs,
			RunE:  runConfigList,
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one configuration value",
			Args:  cobra.ExactArgs(1),
			RunE:  runConfigGet,
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Update a configuration value",
			Args:  cobra.ExactArgs(2),
			RunE:  runConfigSet,
		},
	)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit configuration",
}

func runConfigList(cmd *cobra.Command, args []string) error {
	values, err := config.ListValues(loadConfig(), true)
	if err != nil {
		return fmt.Errorf("list config: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	keys := maps.Keys(values)
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%v\n", k, values[k])
	}
	return w.Flush()
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	val, err := config.GetValue(cfgPath, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, val)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if err := config.SetValue(cfgPath, key, value); err != nil {
		return err
	}
	if config.IsSecretKey(key) {
		value = "***"
	}
	fmt.Fprintf(os.Stdout, "Set %s = %s\n", key, value)
	return nil
}
