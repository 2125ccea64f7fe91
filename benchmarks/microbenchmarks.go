package benchmarks

import (
	"fmt"
	"strings"
)

// GetMicrobenchmarks returns the standard set of hazard microbenchmarks.
// Each kernel stresses one kind of hazard.
//
// Kernels are straight-line code. Branches are never taken because the
// simulator models timing only.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		loadUseChain(),
		memorySequential(),
		branchSequence(),
		mixedOperations(),
		matrixMultiply2x2(),
		loopSimulation(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick
// validation: a loop, a matrix multiply and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSimulation(),
		matrixMultiply2x2(),
		branchSequence(),
	}
}

// 1. Arithmetic Sequential - no dependences at all
func arithmeticSequential() Benchmark {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		r := 8 + i%5
		fmt.Fprintf(&sb, "addi $%d, $%d, 1\n", r+5, r)
	}
	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 independent ADDIs - pipeline fill and drain only",
		Source:      sb.String(),
	}
}

// 2. Dependency Chain - every instruction reads the previous result
func dependencyChain() Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "20 dependent ADDs ($8 = $8 + $9) - measures forwarding benefit",
		Source:      buildDependencyChain(20),
	}
}

func buildDependencyChain(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString("add $8, $8, $9\n")
	}
	return sb.String()
}

// 3. Load-Use Chain - loads whose result is consumed immediately
func loadUseChain() Benchmark {
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "lw $8, %d($29)\n", 4*i)
		sb.WriteString("add $10, $10, $8\n")
	}
	return Benchmark{
		Name:        "load_use_chain",
		Description: "10 load/add pairs - measures the load-use bubble",
		Source:      sb.String(),
	}
}

// 4. Memory Sequential - independent loads and stores
func memorySequential() Benchmark {
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "lw $%d, %d($29)\n", 8+i%4, 4*i)
	}
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "sw $%d, %d($28)\n", 16+i%4, 4*i)
	}
	return Benchmark{
		Name:        "memory_sequential",
		Description: "10 loads then 10 stores with no shared registers",
		Source:      sb.String(),
	}
}

// 5. Branch Sequence - control-delay slot after every branch
func branchSequence() Benchmark {
	var sb strings.Builder
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&sb, "addi $%d, $0, %d\n", 8+i, i)
		fmt.Fprintf(&sb, "beq $%d, $9, next%d\n", 8+i, i)
		fmt.Fprintf(&sb, "next%d:\n", i)
	}
	sb.WriteString("j 0\n")
	return Benchmark{
		Name:        "branch_sequence",
		Description: "5 compare-and-branch pairs - measures control delay plus operand wait",
		Source:      sb.String(),
	}
}

// 6. Mixed Operations - a little of everything
func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "ALU, shift, multiply, load/store and branch mix",
		Source: `
	lw   $8, 0($29)
	lw   $9, 4($29)
	add  $10, $8, $9
	srl  $11, $10, 2
	sub  $12, $11, $8
	mult $12, $9
	mfhi $13
	slti $14, $13, 100
	beq  $14, $0, done
	sra  $15, $13, 1
	sw   $15, 8($29)
done:
	sw   $13, 12($29)
`,
	}
}

// 7. Matrix Multiply 2x2 - unrolled C = A * B
func matrixMultiply2x2() Benchmark {
	var sb strings.Builder
	sb.WriteString("# A at 0($4), B at 0($5), C at 0($6)\n")
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			fmt.Fprintf(&sb, "lw $8, %d($4)\n", 8*i)
			fmt.Fprintf(&sb, "lw $9, %d($5)\n", 4*j)
			sb.WriteString("mult $8, $9\n")
			sb.WriteString("mfhi $10\n")
			fmt.Fprintf(&sb, "lw $8, %d($4)\n", 8*i+4)
			fmt.Fprintf(&sb, "lw $9, %d($5)\n", 8+4*j)
			sb.WriteString("mult $8, $9\n")
			sb.WriteString("mfhi $11\n")
			sb.WriteString("add $12, $10, $11\n")
			fmt.Fprintf(&sb, "sw $12, %d($6)\n", 8*i+4*j)
		}
	}
	return Benchmark{
		Name:        "matrix_multiply_2x2",
		Description: "2x2 integer matrix multiply, fully unrolled",
		Source:      sb.String(),
	}
}

// 8. Loop Simulation - the body of a counted loop, unrolled 5 times
func loopSimulation() Benchmark {
	var sb strings.Builder
	for i := 0; i < 5; i++ {
		sb.WriteString("addi $8, $8, 1\n")
		sb.WriteString("add  $9, $9, $8\n")
		sb.WriteString("slti $10, $8, 5\n")
		fmt.Fprintf(&sb, "beq  $10, $0, exit%d\n", i)
		fmt.Fprintf(&sb, "exit%d:\n", i)
	}
	return Benchmark{
		Name:        "loop_simulation",
		Description: "5 unrolled iterations of a counted loop with its exit test",
		Source:      sb.String(),
	}
}
