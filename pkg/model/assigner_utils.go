package model

import (
	"github.com/limaJavier/orscheduling/pkg/mip"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

type unassignableError struct {
}

func (err unassignableError) Error() string {
	return "not all planifications can be assigned a room"
}

func buildModel(name string, variables []string, objective []float64, constraints []func(state constraintState) []mip.Constraint, state constraintState) *mip.Model {
	type generated struct {
		position    int
		constraints []mip.Constraint
	}

	constraintsChannel := make(chan generated) // Channel to collect constraints

	// Execute constraints functions on different goroutines to improve performance
	for position, constraint := range constraints {
		go func() {
			constraintsChannel <- generated{position, constraint(state)}
		}()
	}

	// Collect generated constraints keeping the functions' order, so the same input yields the same model
	collected := make([][]mip.Constraint, len(constraints))
	for range constraints {
		result := <-constraintsChannel
		collected[result.position] = result.constraints
	}

	return &mip.Model{
		Name:        name,
		Variables:   variables,
		Objective:   objective,
		Constraints: lo.Flatten(collected),
	}
}

// Matches every planification to a distinct room among its neighbours through a maximum bipartite matching
func assignRooms(planifications []int, rooms []int, relationships map[[2]int]bool) ([][2]int, error) {
	assignments := make([][2]int, 0, len(planifications))
	if len(planifications) == 0 {
		return assignments, nil
	}

	// Build neighbors predicate based on relationships
	neighbors := func(planificationAny any, roomAny any) (bool, error) {
		planification := planificationAny.(int)
		room := roomAny.(int)

		return relationships[[2]int{planification, room}], nil
	}

	// Transform planifications and rooms to slices of any
	planificationsAny, roomsAny := lo.Map(planifications, func(planification int, _ int) any { return planification }), lo.Map(rooms, func(room int, _ int) any { return room })

	graph, err := bipartitegraph.NewBipartiteGraph(planificationsAny, roomsAny, neighbors)
	if err != nil {
		return nil, err
	}

	matching := graph.LargestMatching()

	// Check the matching is a maximum one
	if len(matching) < len(planifications) {
		return nil, unassignableError{}
	}

	for _, edge := range matching {
		planificationIndex, roomIndex := edge.Node1, edge.Node2-len(planifications)
		assignments = append(assignments, [2]int{planifications[planificationIndex], rooms[roomIndex]})
	}

	return assignments, nil
}

func operationIds(operations []Operation, indices []int) []string {
	return lo.Map(indices, func(index int, _ int) string { return operations[index].Id })
}
