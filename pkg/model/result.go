package model

import (
	"github.com/limaJavier/orscheduling/pkg/mip"
	"github.com/samber/lo"
)

type Assignment struct {
	Operation string
	Room      string
	Cost      float64
}

// Planification is a selected feasible set of a covering result
type Planification struct {
	Index      int      // Position in the enumeration order
	Operations []string // Members, pairwise conflict-free
	Scheduled  []string // Members not already covered by an earlier selected planification
	Cost       float64  // Sum of the members' averaged costs
	Room       string   // Empty when no distinct room could be matched
}

type Result struct {
	Formulation Formulation
	Status      mip.Status

	Assignments []Assignment    // Direct formulation
	Cover       []Planification // Covering formulations

	Covered    []string // Operations placed by the result, in input order
	Unassigned []string // Operations without any cost entry, left out of the direct model

	Objective float64
	TotalCost float64

	Bounded        bool // The planification enumeration stopped at its bound
	Planifications int  // Planifications enumerated for the covering model
	MissingCosts   []MissingCostError

	Variables   int
	Constraints int
}

// Solved reports whether the result carries an assignment or a cover
func (result Result) Solved() bool {
	return result.Status.HasSolution()
}

// Proven reports whether the result is known to be optimal. A bounded enumeration only proves optimality among the
// enumerated planifications.
func (result Result) Proven() bool {
	return result.Status == mip.StatusOptimal && !result.Bounded
}

func (result Result) AssignmentMap() map[string]string {
	return lo.SliceToMap(result.Assignments, func(assignment Assignment) (string, string) {
		return assignment.Operation, assignment.Room
	})
}
