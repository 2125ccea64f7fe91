// Package main provides the entry point for hazardsim.
// hazardsim measures how data and control hazards stretch the execution of
// a MIPS instruction stream on a 5-stage in-order pipeline.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
