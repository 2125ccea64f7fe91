package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/hazardsim/report"
	"github.com/sarchlab/hazardsim/timing/pipeline"
)

type compareOptions struct {
	left  string
	right string
}

func newCompareCmd(g *globalOptions) *cobra.Command {
	o := &compareOptions{}

	cmd := &cobra.Command{
		Use:   "compare <program> | compare <a.json> <b.json>",
		Short: "Diff the schedules of two policies, or two saved schedules",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				a, b *report.Schedule
				err  error
			)
			if len(args) == 2 {
				a, b, err = readSchedules(args[0], args[1])
			} else {
				a, b, err = o.simulate(cmd, g, args[0])
			}
			if err != nil {
				return err
			}

			diff, err := report.Diff(a, b)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if diff == "" {
				fmt.Fprintln(w, "schedules are identical")
				return nil
			}
			fmt.Fprintln(w, diff)
			fmt.Fprintf(w, "%s: %d cycles, %s: %d cycles\n",
				a.PipelineType, a.TotalCycles, b.PipelineType, b.TotalCycles)
			return nil
		},
	}

	cmd.Flags().StringVar(&o.left, "left", "stall", "Policy on the left of the diff")
	cmd.Flags().StringVar(&o.right, "right", "forward", "Policy on the right of the diff")

	return cmd
}

func (o *compareOptions) simulate(cmd *cobra.Command, g *globalOptions, path string) (*report.Schedule, *report.Schedule, error) {
	left, err := pipeline.ParsePolicyKind(o.left)
	if err != nil {
		return nil, nil, err
	}
	right, err := pipeline.ParsePolicyKind(o.right)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	prog, err := g.loadProgram(path)
	if err != nil {
		return nil, nil, err
	}

	schedules, err := g.newCore(cfg).RunPolicies(cmd.Context(), prog.Instructions, left, right)
	if err != nil {
		return nil, nil, err
	}
	return schedules[0], schedules[1], nil
}

func readSchedules(pathA, pathB string) (*report.Schedule, *report.Schedule, error) {
	a, err := readSchedule(pathA)
	if err != nil {
		return nil, nil, err
	}
	b, err := readSchedule(pathB)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func readSchedule(path string) (*report.Schedule, error) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return nil, fmt.Errorf("saved schedules must be .json files: %q", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schedule: %w", err)
	}
	defer func() { _ = f.Close() }()

	return report.ReadJSON(f)
}
