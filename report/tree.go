package report

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Tree renders the schedule as a tree: one branch per instruction, with a
// leaf for each dependence that instruction has on an earlier one.
func (s *Schedule) Tree() treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%s (%d cycles)", s.PipelineType, s.TotalCycles))

	byLater := make(map[int][]int)
	for n, d := range s.Deps {
		byLater[d.Later] = append(byLater[d.Later], n)
	}

	for i, text := range s.Instructions {
		label := fmt.Sprintf("%d: %s [cycle %d]", i, text, s.Completions[i])
		found := byLater[i]
		if len(found) == 0 {
			tree.AddNode(label)
			continue
		}

		branch := tree.AddBranch(label)
		for _, n := range found {
			d := s.Deps[n]
			branch.AddNode(fmt.Sprintf("%v $%d on %d", d.Kind, d.Register, d.Earlier))
		}
	}

	return tree
}
