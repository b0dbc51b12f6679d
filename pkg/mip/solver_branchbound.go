package mip

import (
	"context"
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	defaultNodeLimit     = 100000
	integralityTolerance = 1e-6
	simplexTolerance     = 1e-9
)

// relaxSimplex points to the LP routine used on every node. It can be overridden in tests to simulate solver failures.
var relaxSimplex = lp.Simplex

// branchBoundSolver solves small models in-process: depth-first branch and bound over the binary variables with
// LP relaxations solved by the simplex method.
type branchBoundSolver struct {
	nodeLimit int
}

func NewBranchBoundSolver(nodeLimit int) MIPSolver {
	if nodeLimit <= 0 {
		nodeLimit = defaultNodeLimit
	}
	return &branchBoundSolver{nodeLimit: nodeLimit}
}

type branchNode struct {
	lower, upper []float64
}

func (node branchNode) fix(variable int, value float64) branchNode {
	child := branchNode{lower: slices.Clone(node.lower), upper: slices.Clone(node.upper)}
	child.lower[variable], child.upper[variable] = value, value
	return child
}

func (node branchNode) firstFree() int {
	for variable := range node.lower {
		if node.lower[variable] != node.upper[variable] {
			return variable
		}
	}
	return -1
}

func (solver *branchBoundSolver) Solve(ctx context.Context, model *Model) (Solution, error) {
	if solution, ok := trivialSolution(model); ok {
		return solution, nil
	}

	variables := len(model.Variables)
	root := branchNode{lower: make([]float64, variables), upper: make([]float64, variables)}
	for variable := range root.upper {
		root.upper[variable] = 1
	}

	var incumbent []float64
	best := math.Inf(1)
	stack := []branchNode{root}
	explored := 0
	limited := false

	for len(stack) > 0 {
		if explored >= solver.nodeLimit || ctx.Err() != nil {
			limited = true
			break
		}
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		explored++

		values, objective, err := solveRelaxation(model, current.lower, current.upper)
		if errors.Is(err, lp.ErrInfeasible) {
			continue
		}

		var branch int
		if err != nil {
			// Numerical trouble in the relaxation: keep splitting without a bound until the node is fully fixed
			branch = current.firstFree()
		} else {
			if objective >= best-integralityTolerance {
				continue
			}
			branch = fractionalVariable(values)
			if branch < 0 {
				rounded := roundValues(values)
				if value, feasible := model.Evaluate(rounded); feasible && value < best {
					best, incumbent = value, rounded
				}
				continue
			}
		}

		stack = append(stack, current.fix(branch, 0), current.fix(branch, 1)) // The "one" branch is explored first
	}

	switch {
	case incumbent == nil && limited:
		return Solution{Status: StatusUnknown}, nil
	case incumbent == nil:
		return Solution{Status: StatusInfeasible}, nil
	case limited:
		return Solution{Status: StatusFeasible, Objective: best, Values: incumbent}, nil
	}
	return Solution{Status: StatusOptimal, Objective: best, Values: incumbent}, nil
}

type relaxationRow struct {
	coefficients []float64 // One per free variable
	slack        float64
	rhs          float64
}

// Solves the LP relaxation of the model with the given variable bounds. Fixed variables are substituted, free ones
// get an explicit upper-bound row, and every row owns a slack column so the standard form has full row rank.
func solveRelaxation(model *Model, lower, upper []float64) ([]float64, float64, error) {
	variables := len(model.Variables)
	values := make([]float64, variables)
	columns := make([]int, variables) // Column of each free variable, -1 when fixed
	free := make([]int, 0, variables)
	offset := 0.0

	for variable := range variables {
		if lower[variable] == upper[variable] {
			columns[variable] = -1
			values[variable] = lower[variable]
			offset += objectiveCoefficient(model, variable) * lower[variable]
			continue
		}
		columns[variable] = len(free)
		free = append(free, variable)
	}

	rows := make([]relaxationRow, 0, len(free)+len(model.Constraints))
	for column := range free {
		row := relaxationRow{coefficients: make([]float64, len(free)), slack: 1, rhs: 1}
		row.coefficients[column] = 1
		rows = append(rows, row)
	}

	for _, constraint := range model.Constraints {
		coefficients := make([]float64, len(free))
		residual := constraint.Rhs
		hasFree := false
		for _, term := range constraint.Terms {
			if column := columns[term.Variable]; column >= 0 {
				coefficients[column] += term.Coefficient
				hasFree = hasFree || term.Coefficient != 0
			} else {
				residual -= term.Coefficient * values[term.Variable]
			}
		}

		if !hasFree {
			if !constraint.Sense.Holds(0, residual) {
				return nil, 0, lp.ErrInfeasible
			}
			continue
		}

		switch constraint.Sense {
		case LessEqual:
			rows = append(rows, relaxationRow{coefficients: coefficients, slack: 1, rhs: residual})
		case GreaterEqual:
			rows = append(rows, relaxationRow{coefficients: coefficients, slack: -1, rhs: residual})
		case Equal:
			rows = append(rows,
				relaxationRow{coefficients: coefficients, slack: 1, rhs: residual},
				relaxationRow{coefficients: slices.Clone(coefficients), slack: -1, rhs: residual},
			)
		}
	}

	if len(free) == 0 {
		return values, offset, nil
	}

	m, n := len(rows), len(free)+len(rows)
	A := mat.NewDense(m, n, nil)
	b := make([]float64, m)
	for i, row := range rows {
		sign := 1.0
		if row.rhs < 0 {
			sign = -1
		}
		for column, coefficient := range row.coefficients {
			if coefficient != 0 {
				A.Set(i, column, sign*coefficient)
			}
		}
		A.Set(i, len(free)+i, sign*row.slack)
		b[i] = sign * row.rhs
	}

	c := make([]float64, n)
	for column, variable := range free {
		c[column] = objectiveCoefficient(model, variable)
	}

	_, x, err := relaxSimplex(c, A, b, simplexTolerance, nil)
	if err != nil {
		return nil, 0, err
	}

	objective := offset
	for column, variable := range free {
		values[variable] = x[column]
		objective += c[column] * x[column]
	}
	return values, objective, nil
}

func objectiveCoefficient(model *Model, variable int) float64 {
	if variable < len(model.Objective) {
		return model.Objective[variable]
	}
	return 0
}

// Returns the most fractional variable, or -1 when every value is integral
func fractionalVariable(values []float64) int {
	branch, distance := -1, integralityTolerance
	for variable, value := range values {
		if d := math.Abs(value - math.Round(value)); d > distance {
			branch, distance = variable, d
		}
	}
	return branch
}

func roundValues(values []float64) []float64 {
	rounded := make([]float64, len(values))
	for variable, value := range values {
		rounded[variable] = math.Round(value)
	}
	return rounded
}
