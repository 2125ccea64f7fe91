package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

type profiler struct {
	cpuPath string
	memPath string
	cpuFile *os.File
}

func (p *profiler) start() error {
	if p.cpuPath == "" {
		return nil
	}

	f, err := os.Create(p.cpuPath)
	if err != nil {
		return fmt.Errorf("error creating CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("error starting CPU profile: %w", err)
	}
	p.cpuFile = f
	return nil
}

func (p *profiler) stop() error {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		_ = p.cpuFile.Close()
		p.cpuFile = nil
	}

	if p.memPath == "" {
		return nil
	}

	f, err := os.Create(p.memPath)
	if err != nil {
		return fmt.Errorf("error creating memory profile: %w", err)
	}
	defer func() { _ = f.Close() }()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("error writing memory profile: %w", err)
	}
	return nil
}
