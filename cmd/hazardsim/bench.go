package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/hazardsim/benchmarks"
)

func newBenchCmd(g *globalOptions) *cobra.Command {
	var (
		format   string
		coreOnly bool
		verbose  bool
		policies []string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the built-in hazard microbenchmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			kinds, err := parsePolicies(policies, cfg)
			if err != nil {
				return err
			}

			harness := benchmarks.NewHarness(benchmarks.HarnessConfig{
				Policies: kinds,
				Timing:   cfg,
				Output:   cmd.OutOrStdout(),
				Logger:   g.logger,
				Verbose:  verbose,
			})
			if coreOnly {
				harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
			} else {
				harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
			}

			results := harness.RunAll(cmd.Context())

			switch format {
			case "text":
				harness.PrintResults(results)
			case "csv":
				harness.PrintCSV(results)
			case "json":
				return harness.PrintJSON(results)
			default:
				return fmt.Errorf("unknown output format %q (want text, csv or json)", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, csv or json")
	cmd.Flags().BoolVar(&coreOnly, "core", false, "Run only the 3 core benchmarks")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.Flags().StringSliceVarP(&policies, "policy", "p", []string{"all"}, "Hazard policies to run")

	return cmd
}
