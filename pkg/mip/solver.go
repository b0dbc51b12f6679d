package mip

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Status int

const (
	StatusOptimal    Status = iota // Proven optimum
	StatusFeasible                 // Best solution found before a time or node limit, optimality not proven
	StatusInfeasible               // No assignment satisfies the constraints
	StatusUnknown                  // A limit was reached before any solution was found
)

func (status Status) String() string {
	switch status {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnknown:
		return "unknown"
	}
	return fmt.Sprintf("Status(%d)", int(status))
}

// HasSolution reports whether a solution carrying variable values accompanies the status
func (status Status) HasSolution() bool {
	return status == StatusOptimal || status == StatusFeasible
}

type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
}

// Selected reports whether the binary variable is set. Solvers may return near-integer floats, so anything above 0.5 counts.
func (solution Solution) Selected(variable int) bool {
	return variable >= 0 && variable < len(solution.Values) && solution.Values[variable] > 0.5
}

type MIPSolver interface {
	// Blocks until the model is solved, proven infeasible or a limit is reached. Those outcomes are reported through
	// Solution.Status; the error is reserved for failures to run the solver itself.
	Solve(ctx context.Context, model *Model) (Solution, error)
}

var ErrSolverNotFound = errors.New("solver executable not found")

const (
	Cbc         = "cbc"
	Glpk        = "glpk"
	BranchBound = "branchbound"
)

var SolverNames = []string{Cbc, Glpk, BranchBound}

type SolverOptions struct {
	CbcPath   string
	GlpkPath  string
	TimeLimit time.Duration
	NodeLimit int
}

func NewSolver(name string, options SolverOptions) (MIPSolver, error) {
	switch name {
	case Cbc:
		return NewCbcSolver(options.CbcPath, options.TimeLimit), nil
	case Glpk:
		return NewGlpkSolver(options.GlpkPath, options.TimeLimit), nil
	case BranchBound:
		return NewBranchBoundSolver(options.NodeLimit), nil
	}
	return nil, fmt.Errorf("%v is not a valid solver", name)
}
