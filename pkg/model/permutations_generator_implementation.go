package model

import (
	"iter"
	"slices"
)

type planificationGeneratorImplementation struct {
	evaluator  predicateEvaluator
	operations int
}

func (generator *planificationGeneratorImplementation) Planifications() iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		for size := 1; size <= generator.operations; size++ {
			found := false
			ok := generator.combinations(size, 0, make([]int, 0, size), func(planification []int) bool {
				found = true
				return yield(planification)
			})
			if !ok {
				return
			}

			// Every feasible subset of size k+1 contains a feasible subset of size k
			if !found {
				return
			}
		}
	}
}

// Extends the partial combination with indices from start onwards in lexicographic order. A candidate that conflicts
// with a member already chosen prunes its whole subtree: every combination below it contains the conflicting pair.
// Returns false when the consumer asked to stop.
func (generator *planificationGeneratorImplementation) combinations(size, start int, combination []int, yield func([]int) bool) bool {
	if len(combination) == size {
		return yield(slices.Clone(combination))
	}

	// Leave room for the members still missing
	last := generator.operations - (size - len(combination))
	for candidate := start; candidate <= last; candidate++ {
		if generator.conflicts(candidate, combination) {
			continue
		}

		if !generator.combinations(size, candidate+1, append(combination, candidate), yield) {
			return false
		}
	}

	return true
}

func (generator *planificationGeneratorImplementation) conflicts(candidate int, combination []int) bool {
	for _, member := range combination {
		if generator.evaluator.Conflict(member, candidate) {
			return true
		}
	}
	return false
}

func (generator *planificationGeneratorImplementation) Enumerate(bound int) ([][]int, bool) {
	planifications := make([][]int, 0)
	exhausted := true

	for planification := range generator.Planifications() {
		if bound > 0 && len(planifications) == bound {
			exhausted = false
			break
		}
		planifications = append(planifications, planification)
	}

	return planifications, exhausted
}
