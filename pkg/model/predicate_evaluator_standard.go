package model

type predicateEvaluatorStandard struct {
	conflicts [][]bool // Symmetric conflict matrix with a false diagonal
	pairs     [][2]int
}

func newPredicateEvaluator(operations []Operation) predicateEvaluator {
	evaluator := predicateEvaluatorStandard{
		conflicts: make([][]bool, len(operations)),
		pairs:     make([][2]int, 0),
	}

	for i := range operations {
		evaluator.conflicts[i] = make([]bool, len(operations))
	}

	for i := range len(operations) - 1 {
		for j := i + 1; j < len(operations); j++ {
			if operations[i].Overlaps(operations[j]) {
				evaluator.conflicts[i][j] = true
				evaluator.conflicts[j][i] = true
				evaluator.pairs = append(evaluator.pairs, [2]int{i, j})
			}
		}
	}

	return &evaluator
}

func (evaluator *predicateEvaluatorStandard) Conflict(operation1, operation2 int) bool {
	return evaluator.conflicts[operation1][operation2]
}

func (evaluator *predicateEvaluatorStandard) Compatible(operations []int) bool {
	for i := range len(operations) - 1 {
		for j := i + 1; j < len(operations); j++ {
			if evaluator.conflicts[operations[i]][operations[j]] {
				return false
			}
		}
	}
	return true
}

func (evaluator *predicateEvaluatorStandard) ConflictingPairs() [][2]int {
	return evaluator.pairs
}
