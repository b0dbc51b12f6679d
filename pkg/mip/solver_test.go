package mip

import (
	"context"
	"math/rand/v2"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

func TestBranchBound(t *testing.T) {
	solver := NewBranchBoundSolver(0)
	t.Run("Random instances", func(t *testing.T) {
		randomExecution(t, solver)
	})
}

func TestCbc(t *testing.T) {
	if _, err := exec.LookPath(defaultCbcPath); err != nil {
		t.Skip("cbc is not installed")
	}
	solver := NewCbcSolver("", time.Minute)
	t.Run("Random instances", func(t *testing.T) {
		randomExecution(t, solver)
	})
}

func TestGlpk(t *testing.T) {
	if _, err := exec.LookPath(defaultGlpkPath); err != nil {
		t.Skip("glpsol is not installed")
	}
	solver := NewGlpkSolver("", time.Minute)
	t.Run("Random instances", func(t *testing.T) {
		randomExecution(t, solver)
	})
}

func randomExecution(t *testing.T, solver MIPSolver) {
	random := rand.New(rand.NewPCG(7, 11))

	for range 25 {
		//** Arrange
		model := GenerateCoveringInstance(random, random.IntN(9)+1, random.IntN(6)+1)
		expected := BruteForce(model)

		//** Act
		solution, err := solver.Solve(context.Background(), model)

		//** Assert
		require.NoError(t, err)
		require.Equal(t, expected.Status, solution.Status)
		if expected.Status == StatusOptimal {
			assert.InDelta(t, expected.Objective, solution.Objective, 1e-6)
			objective, feasible := model.Evaluate(solution.Values)
			assert.True(t, feasible)
			assert.InDelta(t, expected.Objective, objective, 1e-6)
		}
	}
}

func TestBranchBoundAssignment(t *testing.T) {
	// Two operations, two rooms, x[o][r] = 2*o + r; operation 0 is cheaper in room 1 and operation 1 in room 0,
	// and both conflict so they must take different rooms
	model := &Model{
		Name:      "assignment",
		Variables: []string{"x_0_0", "x_0_1", "x_1_0", "x_1_1"},
		Objective: []float64{5, 1, 2, 6},
		Constraints: []Constraint{
			{Terms: []Term{{0, 1}, {1, 1}}, Sense: Equal, Rhs: 1},
			{Terms: []Term{{2, 1}, {3, 1}}, Sense: Equal, Rhs: 1},
			{Terms: []Term{{0, 1}, {2, 1}}, Sense: LessEqual, Rhs: 1},
			{Terms: []Term{{1, 1}, {3, 1}}, Sense: LessEqual, Rhs: 1},
		},
	}

	solution, err := NewBranchBoundSolver(0).Solve(context.Background(), model)

	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, solution.Status)
	assert.InDelta(t, 3, solution.Objective, 1e-9)
	assert.True(t, solution.Selected(1))
	assert.True(t, solution.Selected(2))
	assert.False(t, solution.Selected(0))
	assert.False(t, solution.Selected(3))
}

func TestBranchBoundInfeasible(t *testing.T) {
	model := &Model{
		Variables: []string{"a", "b"},
		Objective: []float64{1, 1},
		Constraints: []Constraint{
			{Terms: []Term{{0, 1}}, Sense: Equal, Rhs: 1},
			{Terms: []Term{{1, 1}}, Sense: Equal, Rhs: 1},
			{Terms: []Term{{0, 1}, {1, 1}}, Sense: LessEqual, Rhs: 1},
		},
	}

	solution, err := NewBranchBoundSolver(0).Solve(context.Background(), model)

	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, solution.Status)
	assert.False(t, solution.Status.HasSolution())
}

func TestBranchBoundLimits(t *testing.T) {
	random := rand.New(rand.NewPCG(3, 5))
	model := GenerateCoveringInstance(random, 8, 5)

	t.Run("Cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		solution, err := NewBranchBoundSolver(0).Solve(ctx, model)

		require.NoError(t, err)
		assert.Equal(t, StatusUnknown, solution.Status)
	})

	t.Run("Node limit", func(t *testing.T) {
		solution, err := NewBranchBoundSolver(1).Solve(context.Background(), model)

		require.NoError(t, err)
		assert.Contains(t, []Status{StatusOptimal, StatusFeasible, StatusUnknown, StatusInfeasible}, solution.Status)
		if solution.Status == StatusFeasible {
			_, feasible := model.Evaluate(solution.Values)
			assert.True(t, feasible)
		}
	})
}

func TestBranchBoundRelaxationFailure(t *testing.T) {
	previous := relaxSimplex
	relaxSimplex = func(c []float64, A mat.Matrix, b []float64, tol float64, initialBasic []int) (float64, []float64, error) {
		return 0, nil, lp.ErrSingular
	}
	defer func() { relaxSimplex = previous }()

	random := rand.New(rand.NewPCG(13, 17))
	for range 10 {
		model := GenerateCoveringInstance(random, random.IntN(6)+1, random.IntN(4)+1)
		expected := BruteForce(model)

		solution, err := NewBranchBoundSolver(0).Solve(context.Background(), model)

		require.NoError(t, err)
		require.Equal(t, expected.Status, solution.Status)
		if expected.Status == StatusOptimal {
			assert.InDelta(t, expected.Objective, solution.Objective, 1e-6)
		}
	}
}

func TestTrivialSolution(t *testing.T) {
	feasible := &Model{Constraints: []Constraint{{Sense: LessEqual, Rhs: 1}}}
	infeasible := &Model{Constraints: []Constraint{{Sense: GreaterEqual, Rhs: 1}}}

	for _, solver := range []MIPSolver{NewBranchBoundSolver(0), NewCbcSolver("/nonexistent/cbc", 0), NewGlpkSolver("/nonexistent/glpsol", 0)} {
		solution, err := solver.Solve(context.Background(), feasible)
		require.NoError(t, err)
		assert.Equal(t, StatusOptimal, solution.Status)

		solution, err = solver.Solve(context.Background(), infeasible)
		require.NoError(t, err)
		assert.Equal(t, StatusInfeasible, solution.Status)
	}
}

func TestMissingExecutable(t *testing.T) {
	model := &Model{Variables: []string{"a"}, Objective: []float64{1}}

	_, err := NewCbcSolver("/nonexistent/cbc", 0).Solve(context.Background(), model)
	assert.ErrorIs(t, err, ErrSolverNotFound)

	_, err = NewGlpkSolver("/nonexistent/glpsol", 0).Solve(context.Background(), model)
	assert.ErrorIs(t, err, ErrSolverNotFound)
}

func TestNewSolver(t *testing.T) {
	for _, name := range SolverNames {
		solver, err := NewSolver(name, SolverOptions{})
		assert.NoError(t, err)
		assert.NotNil(t, solver)
	}

	_, err := NewSolver("kissat", SolverOptions{})
	assert.Error(t, err)
}
