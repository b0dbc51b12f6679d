package model

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/limaJavier/orscheduling/internal/logger"
	"github.com/limaJavier/orscheduling/pkg/mip"

	"github.com/samber/lo"
)

type directAssigner struct {
	solver mip.MIPSolver
	log    logger.Logger
}

// NewDirectAssigner returns the assigner with one binary variable per (operation, room) pair
func NewDirectAssigner(solver mip.MIPSolver, log logger.Logger) Assigner {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &directAssigner{
		solver: solver,
		log:    log,
	}
}

func (assigner *directAssigner) Build(ctx context.Context, modelInput ModelInput) (Result, error) {
	result := Result{Formulation: DirectFormulation}
	rooms := modelInput.Rooms()
	resolver := newCostResolver(modelInput.Costs)

	//** Split operations
	// An operation absent from the cost table cannot be placed in any room
	operations := make([]Operation, 0, len(modelInput.Operations))
	for _, operation := range modelInput.Operations {
		if !modelInput.Costs.Has(operation.Id) {
			assigner.log.Warnf("operation %v has no cost entries and is left unassigned", operation.Id)
			result.Unassigned = append(result.Unassigned, operation.Id)
			continue
		}
		operations = append(operations, operation)
	}

	//** Record missing costs
	for _, operation := range operations {
		for _, room := range rooms {
			_, err := resolver.Cost(operation.Id, room)
			var missing MissingCostError
			if errors.As(err, &missing) {
				assigner.log.Warnf("%v: pair excluded from the model", err)
				result.MissingCosts = append(result.MissingCosts, missing)
			}
		}
	}

	//** Initialize dependencies
	evaluator := newPredicateEvaluator(operations)
	indexer := newIndexer(operations, rooms, resolver)

	//** Build MIP instance
	variables := make([]string, indexer.Size())
	objective := make([]float64, indexer.Size())
	for index := range indexer.Size() {
		operation, room := indexer.Attributes(index)
		variables[index] = fmt.Sprintf("x_%v_%v", operations[operation].Id, rooms[room])
		objective[index], _ = resolver.Cost(operations[operation].Id, rooms[room])
	}

	// Constraints functions
	constraints := []func(state constraintState) []mip.Constraint{
		assignmentConstraints,
		exclusivityConstraints,
	}

	state := constraintState{
		evaluator:  evaluator,
		resolver:   resolver,
		indexer:    indexer,
		operations: operations,
		rooms:      rooms,
	}

	model := buildModel("direct_assignment", variables, objective, constraints, state)
	result.Variables, result.Constraints = len(model.Variables), len(model.Constraints)
	assigner.log.Debugw("direct assignment model built", map[string]any{
		"operations":  len(operations),
		"rooms":       len(rooms),
		"conflicts":   len(evaluator.ConflictingPairs()),
		"variables":   result.Variables,
		"constraints": result.Constraints,
	})

	//** Solve MIP instance
	solution, err := assigner.solver.Solve(ctx, model)
	if err != nil {
		return Result{}, fmt.Errorf("cannot solve direct assignment model: %w", err)
	}
	result.Status = solution.Status
	if !solution.Status.HasSolution() {
		assigner.log.Warnf("direct assignment finished without assignment: %v", solution.Status)
		return result, nil
	}
	result.Objective = solution.Objective

	// Walk the indexer instead of decoding variable names
	for index := range indexer.Size() {
		if !solution.Selected(index) {
			continue
		}
		operation, room := indexer.Attributes(index)
		result.Assignments = append(result.Assignments, Assignment{
			Operation: operations[operation].Id,
			Room:      rooms[room],
			Cost:      objective[index],
		})
		result.TotalCost += objective[index]
	}

	assigned := lo.SliceToMap(result.Assignments, func(assignment Assignment) (string, bool) {
		return assignment.Operation, true
	})
	result.Covered = lo.FilterMap(operations, func(operation Operation, _ int) (string, bool) {
		return operation.Id, assigned[operation.Id]
	})

	assigner.log.Infof("direct assignment %v: %d operations assigned, total cost %v", result.Status, len(result.Assignments), result.TotalCost)
	return result, nil
}

func (assigner *directAssigner) Verify(result Result, modelInput ModelInput) bool {
	if !result.Solved() {
		return false
	}

	operations := lo.KeyBy(modelInput.Operations, func(operation Operation) string { return operation.Id })

	assigned := make(map[string]string)
	totalCost := 0.0
	for _, assignment := range result.Assignments {
		_, known := operations[assignment.Operation]
		_, alreadyAssigned := assigned[assignment.Operation]
		cost, hasCost := modelInput.Costs.Cost(assignment.Operation, assignment.Room)

		// Check that:
		// - Operation belongs to the input
		// - Operation is assigned only once
		// - Room has a cost for the operation and the reported cost matches it
		if !known || alreadyAssigned || !hasCost || cost != assignment.Cost {
			return false
		}

		assigned[assignment.Operation] = assignment.Room
		totalCost += cost
	}

	// Every operation with cost entries is assigned, the rest are reported as unassigned
	for _, operation := range modelInput.Operations {
		_, isAssigned := assigned[operation.Id]
		if isAssigned != modelInput.Costs.Has(operation.Id) {
			return false
		}
	}
	if len(result.Unassigned)+len(assigned) != len(modelInput.Operations) {
		return false
	}

	// No room holds two overlapping operations
	for i := range len(result.Assignments) - 1 {
		for j := i + 1; j < len(result.Assignments); j++ {
			assignment1, assignment2 := result.Assignments[i], result.Assignments[j]
			if assignment1.Room == assignment2.Room && operations[assignment1.Operation].Overlaps(operations[assignment2.Operation]) {
				return false
			}
		}
	}

	return math.Abs(totalCost-result.TotalCost) <= 1e-6
}
