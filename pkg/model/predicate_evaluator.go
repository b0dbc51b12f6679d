package model

type predicateEvaluator interface {
	// Checks whether operation1 and operation2 overlap in time. An operation never conflicts with itself.
	Conflict(operation1, operation2 int) bool

	// Checks whether the operations are pairwise conflict-free
	Compatible(operations []int) bool

	// Returns every unordered pair of conflicting operations, each pair once as (i, j) with i < j
	ConflictingPairs() [][2]int
}
