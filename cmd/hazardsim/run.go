package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/hazardsim/report"
	"github.com/sarchlab/hazardsim/timing/core"
)

type runOptions struct {
	policies []string
	json     bool
	tree     bool
	diagram  bool
}

func newRunCmd(g *globalOptions) *cobra.Command {
	o := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <program.asm|program.mach|program.elf>",
		Short: "Simulate a program and print its completion schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			kinds, err := parsePolicies(o.policies, cfg)
			if err != nil {
				return err
			}
			prog, err := g.loadProgram(args[0])
			if err != nil {
				return err
			}

			var opts []core.CoreOption
			if o.diagram {
				opts = append(opts, core.WithTrace())
			}
			schedules, err := g.newCore(cfg, opts...).RunPolicies(cmd.Context(), prog.Instructions, kinds...)
			if err != nil {
				return err
			}

			return o.print(cmd.OutOrStdout(), schedules)
		},
	}

	cmd.Flags().StringSliceVarP(&o.policies, "policy", "p", []string{"all"},
		"Hazard policies to run (ideal, stall, forward, all); empty uses the config")
	cmd.Flags().BoolVar(&o.json, "json", false, "Print schedules as JSON")
	cmd.Flags().BoolVar(&o.tree, "tree", false, "Print instructions with their dependences as a tree")
	cmd.Flags().BoolVar(&o.diagram, "diagram", false, "Print a pipeline occupancy diagram")

	return cmd
}

func (o *runOptions) print(w io.Writer, schedules []*report.Schedule) error {
	if o.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(schedules)
	}

	for _, s := range schedules {
		if err := s.WriteText(w); err != nil {
			return err
		}
		if o.tree {
			fmt.Fprintln(w, s.Tree().String())
		}
		if o.diagram {
			if err := s.WriteDiagram(w); err != nil {
				return err
			}
			fmt.Fprintln(w)
		}
	}

	if len(schedules) > 1 {
		return report.WriteSummary(w, schedules...)
	}
	return nil
}
