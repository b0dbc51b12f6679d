package model

import (
	"fmt"

	"github.com/limaJavier/orscheduling/pkg/mip"
)

type constraintState struct {
	evaluator predicateEvaluator
	resolver  costResolver
	indexer   indexer

	operations     []Operation
	rooms          []string
	planifications [][]int
}

// Σ_r x(o, r) = 1 for every operation o
func assignmentConstraints(state constraintState) []mip.Constraint {
	constraints := make([]mip.Constraint, 0, len(state.operations))

	for operation := range state.operations {
		terms := make([]mip.Term, 0, len(state.rooms))
		for room := range state.rooms {
			if index, ok := state.indexer.Index(operation, room); ok {
				terms = append(terms, mip.Term{Variable: index, Coefficient: 1})
			}
		}

		constraints = append(constraints, mip.Constraint{
			Name:  fmt.Sprintf("assignment_%v", state.operations[operation].Id),
			Terms: terms,
			Sense: mip.Equal,
			Rhs:   1,
		})
	}

	return constraints
}

// x(o, r) + x(o', r) <= 1 for every conflicting pair {o, o'} and every room r where both variables exist
func exclusivityConstraints(state constraintState) []mip.Constraint {
	constraints := make([]mip.Constraint, 0)

	// Each unordered pair appears once, so no constraint is generated twice
	for _, pair := range state.evaluator.ConflictingPairs() {
		operation1, operation2 := pair[0], pair[1]
		for room := range state.rooms {
			index1, ok1 := state.indexer.Index(operation1, room)
			index2, ok2 := state.indexer.Index(operation2, room)
			// A missing variable is fixed at zero, the pair cannot collide in this room
			if !ok1 || !ok2 {
				continue
			}

			constraints = append(constraints, mip.Constraint{
				Name: fmt.Sprintf("exclusivity_%v_%v_%v", state.operations[operation1].Id, state.operations[operation2].Id, state.rooms[room]),
				Terms: []mip.Term{
					{Variable: index1, Coefficient: 1},
					{Variable: index2, Coefficient: 1},
				},
				Sense: mip.LessEqual,
				Rhs:   1,
			})
		}
	}

	return constraints
}

// Σ_{k ∋ o} y(k) >= 1 for every operation o. Operations may be covered more than once.
func coveringConstraints(state constraintState) []mip.Constraint {
	containing := make([][]mip.Term, len(state.operations))
	for planification, members := range state.planifications {
		for _, operation := range members {
			containing[operation] = append(containing[operation], mip.Term{Variable: planification, Coefficient: 1})
		}
	}

	constraints := make([]mip.Constraint, 0, len(state.operations))
	for operation, terms := range containing {
		// An operation left out of every planification (possible once the enumeration is bounded) keeps an empty row,
		// which makes the model infeasible instead of silently dropping the operation
		constraints = append(constraints, mip.Constraint{
			Name:  fmt.Sprintf("covering_%v", state.operations[operation].Id),
			Terms: terms,
			Sense: mip.GreaterEqual,
			Rhs:   1,
		})
	}

	return constraints
}
