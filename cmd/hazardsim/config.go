package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(g *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective timing configuration, or save it to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			if output != "" {
				return cfg.SaveConfig(output)
			}

			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to serialize timing config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the configuration to this file")

	return cmd
}
