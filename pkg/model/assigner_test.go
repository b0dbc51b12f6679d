package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/orscheduling/internal/logger"
	"github.com/limaJavier/orscheduling/pkg/mip"
)

func TestBranchBoundBasedDirectAssigner(t *testing.T) {
	assigner := NewDirectAssigner(mip.NewBranchBoundSolver(0), logger.NopLogger{})

	t.Run("Three operations", func(t *testing.T) {
		threeOperationsExecution(t, assigner)
	})
	t.Run("Small instance", func(t *testing.T) {
		smallInstanceExecution(t, assigner)
	})
}

func TestCbcBasedDirectAssigner(t *testing.T) {
	assigner := NewDirectAssigner(mip.NewCbcSolver("", 0), logger.NopLogger{})

	t.Run("Three operations", func(t *testing.T) {
		threeOperationsExecution(t, assigner)
	})
	t.Run("Small instance", func(t *testing.T) {
		smallInstanceExecution(t, assigner)
	})
}

func TestGlpkBasedDirectAssigner(t *testing.T) {
	assigner := NewDirectAssigner(mip.NewGlpkSolver("", 0), logger.NopLogger{})

	t.Run("Three operations", func(t *testing.T) {
		threeOperationsExecution(t, assigner)
	})
	t.Run("Small instance", func(t *testing.T) {
		smallInstanceExecution(t, assigner)
	})
}

// Operations [0,2], [2,4] and [1,3] with uniform unit cost: the third one overlaps both others
func threeOperationsExecution(t *testing.T, assigner Assigner) {
	operations := hourOperations([2]int{0, 2}, [2]int{2, 4}, [2]int{1, 3})

	t.Run("One room is infeasible", func(t *testing.T) {
		// Arrange
		input := uniformInput(t, operations, []string{"A"}, 1)

		// Act
		result, err := assigner.Build(context.Background(), input)
		skipMissingSolver(t, err)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, mip.StatusInfeasible, result.Status)
		assert.False(t, result.Solved())
		assert.Empty(t, result.Assignments)
		assert.False(t, assigner.Verify(result, input))
	})

	t.Run("Two rooms", func(t *testing.T) {
		// Arrange
		input := uniformInput(t, operations, []string{"A", "B"}, 1)

		// Act
		result, err := assigner.Build(context.Background(), input)
		skipMissingSolver(t, err)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, mip.StatusOptimal, result.Status)
		assert.True(t, result.Proven())
		assert.InDelta(t, 3.0, result.TotalCost, 1e-6)
		assert.True(t, assigner.Verify(result, input))

		assignment := result.AssignmentMap()
		require.Len(t, assignment, 3)
		assert.NotEqual(t, assignment["1"], assignment["3"])
		assert.NotEqual(t, assignment["2"], assignment["3"])
	})
}

func smallInstanceExecution(t *testing.T, assigner Assigner) {
	// Arrange
	input, err := InputFromJson(testDirectory + "small.json")
	require.NoError(t, err)

	scenarios := []struct {
		name     string
		filter   SpecialtyFilter
		expected map[string]string
		cost     float64
	}{
		{
			name:     "All specialties",
			expected: map[string]string{"OP_1": "Q2", "OP_2": "Q2", "OP_3": "Q1", "OP_4": "Q1", "OP_5": "Q1"},
			cost:     69,
		},
		{
			name:     "Cardiology",
			filter:   SpecialtyFilter{Specialties: []string{"Card"}, Match: MatchContains},
			expected: map[string]string{"OP_1": "Q2", "OP_2": "Q2", "OP_3": "Q1", "OP_4": "Q1"},
			cost:     62,
		},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			filtered := input.Filter(scenario.filter)

			// Act
			result, err := assigner.Build(context.Background(), filtered)
			skipMissingSolver(t, err)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, mip.StatusOptimal, result.Status)
			assert.Equal(t, scenario.expected, result.AssignmentMap())
			assert.InDelta(t, scenario.cost, result.TotalCost, 1e-6)
			assert.True(t, assigner.Verify(result, filtered))
		})
	}
}

func TestDirectAssignerMissingCosts(t *testing.T) {
	// Arrange
	operations := hourOperations([2]int{0, 2}, [2]int{1, 3}, [2]int{4, 5})
	operations[0].Id, operations[1].Id, operations[2].Id = "X", "Y", "Z"
	input := newInput(t, operations, []string{"A", "B"}, map[string]map[string]float64{
		"A": {"Y": 1},
		"B": {"X": 5, "Y": 2},
	})
	assigner := NewDirectAssigner(mip.NewBranchBoundSolver(0), nil)

	// Act
	result, err := assigner.Build(context.Background(), input)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, mip.StatusOptimal, result.Status)
	assert.Equal(t, 3, result.Variables, "(X, A) must not get a variable")
	assert.Equal(t, []MissingCostError{{Operation: "X", Room: "A"}}, result.MissingCosts)
	assert.Equal(t, []string{"Z"}, result.Unassigned)
	assert.Equal(t, map[string]string{"X": "B", "Y": "A"}, result.AssignmentMap())
	assert.InDelta(t, 6.0, result.TotalCost, 1e-6)
	assert.Equal(t, []string{"X", "Y"}, result.Covered)
	assert.True(t, assigner.Verify(result, input))
}

func TestDirectAssignerVerifyRejects(t *testing.T) {
	// Arrange
	operations := hourOperations([2]int{0, 2}, [2]int{1, 3})
	input := uniformInput(t, operations, []string{"A", "B"}, 1)
	assigner := NewDirectAssigner(mip.NewBranchBoundSolver(0), nil)
	valid := Result{
		Formulation: DirectFormulation,
		Status:      mip.StatusOptimal,
		Assignments: []Assignment{{"1", "A", 1}, {"2", "B", 1}},
		TotalCost:   2,
	}
	require.True(t, assigner.Verify(valid, input))

	scenarios := map[string]Result{
		"Shared room": {Status: mip.StatusOptimal, Assignments: []Assignment{{"1", "A", 1}, {"2", "A", 1}}, TotalCost: 2},
		"Unassigned":  {Status: mip.StatusOptimal, Assignments: []Assignment{{"1", "A", 1}}, TotalCost: 1},
		"Twice":       {Status: mip.StatusOptimal, Assignments: []Assignment{{"1", "A", 1}, {"1", "B", 1}, {"2", "B", 1}}, TotalCost: 3},
		"Wrong cost":  {Status: mip.StatusOptimal, Assignments: []Assignment{{"1", "A", 1}, {"2", "B", 1}}, TotalCost: 7},
		"Not solved":  {Status: mip.StatusUnknown},
	}

	for name, result := range scenarios {
		t.Run(name, func(t *testing.T) {
			assert.False(t, assigner.Verify(result, input))
		})
	}
}

func TestCoveringAssigner(t *testing.T) {
	// Arrange
	input, err := InputFromJson(testDirectory + "small.json")
	require.NoError(t, err)
	solver := mip.NewBranchBoundSolver(0)

	t.Run("Cost weighted", func(t *testing.T) {
		assigner := NewCoveringAssigner(solver, true, 500, logger.NopLogger{})

		// Act
		result, err := assigner.Build(context.Background(), input)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, CoveringCostFormulation, result.Formulation)
		assert.Equal(t, mip.StatusOptimal, result.Status)
		assert.False(t, result.Bounded)
		assert.True(t, result.Proven())
		// Averaged costs 11 + 17.5 + 27.5 + 7 + 7, any partition of the operations reaches it
		assert.InDelta(t, 70.0, result.Objective, 1e-6)
		assert.InDelta(t, 70.0, result.TotalCost, 1e-6)
		assert.ElementsMatch(t, []string{"OP_1", "OP_2", "OP_3", "OP_4", "OP_5"}, result.Covered)
		assert.True(t, assigner.Verify(result, input))
	})

	t.Run("Count", func(t *testing.T) {
		assigner := NewCoveringAssigner(solver, false, 500, logger.NopLogger{})

		// Act
		result, err := assigner.Build(context.Background(), input)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, CoveringCountFormulation, result.Formulation)
		assert.Equal(t, mip.StatusOptimal, result.Status)
		// OP_3 overlaps OP_1 and OP_2, OP_4 overlaps OP_2: two schedules are needed and enough
		assert.InDelta(t, 2.0, result.Objective, 1e-6)
		require.Len(t, result.Cover, 2)
		for _, planification := range result.Cover {
			assert.NotEmpty(t, planification.Room)
		}
		assert.NotEqual(t, result.Cover[0].Room, result.Cover[1].Room)
		assert.True(t, assigner.Verify(result, input))
	})

	t.Run("Bounded enumeration", func(t *testing.T) {
		assigner := NewCoveringAssigner(solver, false, 3, logger.NopLogger{})

		// Act
		result, err := assigner.Build(context.Background(), input)

		// Assert
		// Only singletons of the first three operations survive the bound, the others cannot be covered
		require.NoError(t, err)
		assert.True(t, result.Bounded)
		assert.Equal(t, 3, result.Planifications)
		assert.Equal(t, mip.StatusInfeasible, result.Status)
		assert.False(t, result.Proven())
	})

	t.Run("Bounded enumeration keeps a cover", func(t *testing.T) {
		assigner := NewCoveringAssigner(solver, false, 6, logger.NopLogger{})

		// Act
		result, err := assigner.Build(context.Background(), input)

		// Assert
		// Five singletons and the first pair {OP_1, OP_2}
		require.NoError(t, err)
		assert.True(t, result.Bounded)
		assert.True(t, result.Solved())
		assert.False(t, result.Proven())
		assert.InDelta(t, 4.0, result.Objective, 1e-6)
		assert.True(t, assigner.Verify(result, input))
	})
}

func TestThreeOperationsCovering(t *testing.T) {
	// Arrange
	operations := hourOperations([2]int{0, 2}, [2]int{2, 4}, [2]int{1, 3})
	input := uniformInput(t, operations, []string{"A", "B"}, 1)
	assigner := NewCoveringAssigner(mip.NewBranchBoundSolver(0), false, 0, nil)

	// Act
	result, err := assigner.Build(context.Background(), input)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, mip.StatusOptimal, result.Status)
	assert.Equal(t, []string{"1", "2", "3"}, result.Covered)

	union := make(map[string]bool)
	for _, planification := range result.Cover {
		for _, operation := range planification.Operations {
			union[operation] = true
		}
	}
	assert.Len(t, union, 3)
	assert.True(t, assigner.Verify(result, input))
}

func TestNewAssigner(t *testing.T) {
	solver := mip.NewBranchBoundSolver(0)

	for _, formulation := range Formulations {
		assigner, err := NewAssigner(formulation, solver, 10, nil)
		assert.NoError(t, err)
		assert.NotNil(t, assigner)
	}

	_, err := NewAssigner("partition", solver, 10, nil)
	assert.Error(t, err)
}

func skipMissingSolver(t *testing.T, err error) {
	t.Helper()
	if errors.Is(err, mip.ErrSolverNotFound) {
		t.Skipf("solver not available: %v", err)
	}
}
