package model

import (
	"context"
	"fmt"

	"github.com/limaJavier/orscheduling/internal/logger"
	"github.com/limaJavier/orscheduling/pkg/mip"
)

type Formulation string

const (
	DirectFormulation        Formulation = "direct"
	CoveringCostFormulation  Formulation = "covering-cost"
	CoveringCountFormulation Formulation = "covering-count"
)

var Formulations = []Formulation{DirectFormulation, CoveringCostFormulation, CoveringCountFormulation}

type Assigner interface {
	// Builds the formulation's model for the input, solves it and extracts the result. Infeasibility and solver
	// limits are reported through Result.Status; the error is reserved for failures to run the solver.
	Build(
		ctx context.Context,
		modelInput ModelInput,
	) (Result, error)

	// Checks the result against the input: the invariants of the formulation must hold
	Verify(
		result Result,
		modelInput ModelInput,
	) bool
}

// NewAssigner returns the assigner of the formulation. maxPlanifications bounds the enumeration of the covering
// formulations and is ignored by the direct one.
func NewAssigner(formulation Formulation, solver mip.MIPSolver, maxPlanifications int, log logger.Logger) (Assigner, error) {
	switch formulation {
	case DirectFormulation:
		return NewDirectAssigner(solver, log), nil
	case CoveringCostFormulation:
		return NewCoveringAssigner(solver, true, maxPlanifications, log), nil
	case CoveringCountFormulation:
		return NewCoveringAssigner(solver, false, maxPlanifications, log), nil
	}
	return nil, fmt.Errorf("%v is not a valid formulation", formulation)
}
