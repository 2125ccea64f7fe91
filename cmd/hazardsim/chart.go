package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/hazardsim/report"
)

func newChartCmd(g *globalOptions) *cobra.Command {
	var (
		output   string
		policies []string
	)

	cmd := &cobra.Command{
		Use:   "chart <program>",
		Short: "Render an HTML bar chart comparing policies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			kinds, err := parsePolicies(policies, cfg)
			if err != nil {
				return err
			}
			prog, err := g.loadProgram(args[0])
			if err != nil {
				return err
			}

			schedules, err := g.newCore(cfg).RunPolicies(cmd.Context(), prog.Instructions, kinds...)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return report.WriteChart(cmd.OutOrStdout(), schedules...)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create chart file: %w", err)
			}
			if err := report.WriteChart(f, schedules...); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write chart file: %w", err)
			}

			g.logger.Info("chart written", "path", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "hazards.html", "Output HTML file, - for stdout")
	cmd.Flags().StringSliceVarP(&policies, "policy", "p", []string{"all"}, "Hazard policies to chart")

	return cmd
}
