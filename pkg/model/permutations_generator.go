package model

import "iter"

// planificationGenerator enumerates planifications: subsets of operation indices whose members are pairwise
// conflict-free.
//
// The order is fixed: subsets grow in size (1, 2, ..., N) and subsets of the same size follow the lexicographic
// order of their sorted indices, e.g. for N = 3 without conflicts:
//
//	[0] [1] [2] [0 1] [0 2] [1 2] [0 1 2]
//
// Any bound applied to the sequence therefore keeps the same subsets across runs.
type planificationGenerator interface {
	// Lazily yields planifications in enumeration order. Every yielded slice is owned by the caller.
	Planifications() iter.Seq[[]int]

	// Collects at most bound planifications (bound <= 0 means unbounded). exhausted is false when further
	// planifications existed beyond the bound.
	Enumerate(bound int) (planifications [][]int, exhausted bool)
}

func newPlanificationGenerator(evaluator predicateEvaluator, operations int) planificationGenerator {
	return &planificationGeneratorImplementation{
		evaluator:  evaluator,
		operations: operations,
	}
}
