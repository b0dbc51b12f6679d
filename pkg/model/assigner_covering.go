package model

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/limaJavier/orscheduling/internal/logger"
	"github.com/limaJavier/orscheduling/pkg/mip"

	"github.com/samber/lo"
)

type coveringAssigner struct {
	solver            mip.MIPSolver
	weighted          bool
	maxPlanifications int
	log               logger.Logger
}

// NewCoveringAssigner returns the assigner with one binary variable per planification. When weighted the objective
// is the summed averaged cost of the selected planifications, otherwise their count. maxPlanifications bounds the
// enumeration (<= 0 means unbounded, which is only practical for small instances).
func NewCoveringAssigner(solver mip.MIPSolver, weighted bool, maxPlanifications int, log logger.Logger) Assigner {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &coveringAssigner{
		solver:            solver,
		weighted:          weighted,
		maxPlanifications: maxPlanifications,
		log:               log,
	}
}

func (assigner *coveringAssigner) formulation() Formulation {
	if assigner.weighted {
		return CoveringCostFormulation
	}
	return CoveringCountFormulation
}

func (assigner *coveringAssigner) Build(ctx context.Context, modelInput ModelInput) (Result, error) {
	result := Result{Formulation: assigner.formulation()}
	operations := modelInput.Operations
	rooms := modelInput.Rooms()
	resolver := newCostResolver(modelInput.Costs)

	for _, operation := range operations {
		if !modelInput.Costs.Has(operation.Id) {
			assigner.log.Warnf("operation %v has no cost entries, its averaged cost defaults to 0", operation.Id)
		}
	}

	//** Enumerate planifications
	evaluator := newPredicateEvaluator(operations)
	generator := newPlanificationGenerator(evaluator, len(operations))
	planifications, exhausted := generator.Enumerate(assigner.maxPlanifications)
	result.Planifications = len(planifications)
	result.Bounded = !exhausted
	if result.Bounded {
		assigner.log.Warnf("planification enumeration stopped at %d sets, the cover is not guaranteed optimal", assigner.maxPlanifications)
	}

	//** Build MIP instance
	averages := lo.Map(operations, func(operation Operation, _ int) float64 {
		return resolver.AverageCost(operation.Id)
	})
	variables := make([]string, len(planifications))
	costs := make([]float64, len(planifications))
	objective := make([]float64, len(planifications))
	for planification, members := range planifications {
		variables[planification] = fmt.Sprintf("y_%d", planification)
		costs[planification] = lo.SumBy(members, func(member int) float64 { return averages[member] })
		if assigner.weighted {
			objective[planification] = costs[planification]
		} else {
			objective[planification] = 1
		}
	}

	state := constraintState{
		evaluator:      evaluator,
		resolver:       resolver,
		operations:     operations,
		rooms:          rooms,
		planifications: planifications,
	}

	model := buildModel("set_covering", variables, objective, []func(state constraintState) []mip.Constraint{coveringConstraints}, state)
	result.Variables, result.Constraints = len(model.Variables), len(model.Constraints)
	assigner.log.Debugw("set covering model built", map[string]any{
		"formulation":    result.Formulation,
		"operations":     len(operations),
		"planifications": len(planifications),
		"bounded":        result.Bounded,
		"constraints":    result.Constraints,
	})

	//** Solve MIP instance
	solution, err := assigner.solver.Solve(ctx, model)
	if err != nil {
		return Result{}, fmt.Errorf("cannot solve set covering model: %w", err)
	}
	result.Status = solution.Status
	if !solution.Status.HasSolution() {
		assigner.log.Warnf("set covering finished without cover: %v", solution.Status)
		return result, nil
	}
	result.Objective = solution.Objective

	// An operation covered twice is scheduled by the first selected planification containing it
	covered := make([]bool, len(operations))
	for planification, members := range planifications {
		if !solution.Selected(planification) {
			continue
		}

		scheduled := lo.Filter(members, func(member int, _ int) bool { return !covered[member] })
		for _, member := range members {
			covered[member] = true
		}

		result.Cover = append(result.Cover, Planification{
			Index:      planification,
			Operations: operationIds(operations, members),
			Scheduled:  operationIds(operations, scheduled),
			Cost:       costs[planification],
		})
		result.TotalCost += costs[planification]
	}
	result.Covered = lo.FilterMap(operations, func(operation Operation, index int) (string, bool) {
		return operation.Id, covered[index]
	})

	assigner.matchRooms(result.Cover, rooms, resolver)

	assigner.log.Infof("set covering %v: %d planifications selected out of %d, total cost %v", result.Status, len(result.Cover), len(planifications), result.TotalCost)
	return result, nil
}

// Gives every selected planification that schedules something a distinct room with costs for all its scheduled
// operations. Rooms are left empty when no such matching exists.
func (assigner *coveringAssigner) matchRooms(cover []Planification, rooms []string, resolver costResolver) {
	pending := make([]int, 0, len(cover))
	relationships := make(map[[2]int]bool)
	for planification := range cover {
		if len(cover[planification].Scheduled) == 0 {
			continue
		}
		pending = append(pending, planification)

		for room := range rooms {
			if lo.EveryBy(cover[planification].Scheduled, func(operation string) bool {
				_, err := resolver.Cost(operation, rooms[room])
				return err == nil
			}) {
				relationships[[2]int{planification, room}] = true
			}
		}
	}

	assignments, err := assignRooms(pending, lo.Range(len(rooms)), relationships)
	if _, ok := err.(unassignableError); ok {
		assigner.log.Warnf("cannot assign rooms: %d planifications for %d rooms: %v", len(pending), len(rooms), err)
		return
	} else if err != nil {
		assigner.log.Errorf("cannot assign rooms: %v", err)
		return
	}

	for _, assignment := range assignments {
		planification, room := assignment[0], assignment[1]
		cover[planification].Room = rooms[room]
	}
}

func (assigner *coveringAssigner) Verify(result Result, modelInput ModelInput) bool {
	if !result.Solved() {
		return false
	}

	operations := lo.KeyBy(modelInput.Operations, func(operation Operation) string { return operation.Id })

	covered := make(map[string]bool)
	scheduled := make(map[string]bool)
	rooms := make(map[string]bool)
	totalCost := 0.0
	for _, planification := range result.Cover {
		for i, id := range planification.Operations {
			operation, known := operations[id]
			if !known {
				return false
			}
			// Members are pairwise conflict-free
			for _, other := range planification.Operations[i+1:] {
				if operation.Overlaps(operations[other]) {
					return false
				}
			}
			covered[id] = true
		}

		for _, id := range planification.Scheduled {
			// Scheduled operations are members and each operation is scheduled once
			if !slices.Contains(planification.Operations, id) || scheduled[id] {
				return false
			}
			scheduled[id] = true

			if _, hasCost := modelInput.Costs.Cost(id, planification.Room); planification.Room != "" && !hasCost {
				return false
			}
		}

		if planification.Room != "" {
			if rooms[planification.Room] {
				return false
			}
			rooms[planification.Room] = true
		}
		totalCost += planification.Cost
	}

	// The union of the cover is the whole input
	for id := range operations {
		if !covered[id] || !scheduled[id] {
			return false
		}
	}
	if len(result.Covered) != len(operations) {
		return false
	}

	return math.Abs(totalCost-result.TotalCost) <= 1e-6
}
