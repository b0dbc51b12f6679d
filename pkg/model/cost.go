package model

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"
)

var ErrMissingCost = errors.New("missing cost")

// MissingCostError reports an (operation, room) pair absent from the cost table
type MissingCostError struct {
	Operation string
	Room      string
}

func (err MissingCostError) Error() string {
	return fmt.Sprintf("%v: operation %v has no cost in room %v", ErrMissingCost, err.Operation, err.Room)
}

func (err MissingCostError) Is(target error) bool {
	return target == ErrMissingCost
}

type costKey struct {
	operation string
	room      string
}

// CostTable is an immutable (operation, room) -> cost mapping. Rooms keep the order they were given in.
type CostTable struct {
	rooms      []string
	operations []string
	costs      map[costKey]float64
}

// NewCostTable builds a table from room -> operation -> cost entries. When rooms is empty the rooms are taken from
// the entries in lexicographic order. NaN cells are treated as absent.
func NewCostTable(rooms []string, costs map[string]map[string]float64) (CostTable, error) {
	if len(rooms) == 0 {
		rooms = lo.Keys(costs)
		slices.Sort(rooms)
	}
	if duplicates := lo.FindDuplicates(rooms); len(duplicates) > 0 {
		return CostTable{}, fmt.Errorf("duplicate rooms %v", duplicates)
	}

	table := CostTable{
		rooms: slices.Clone(rooms),
		costs: make(map[costKey]float64),
	}
	operations := make(map[string]bool)
	for room, row := range costs {
		if !slices.Contains(rooms, room) {
			return CostTable{}, fmt.Errorf("costs given for unknown room %v", room)
		}
		for operation, cost := range row {
			if math.IsNaN(cost) {
				continue
			}
			if cost < 0 || math.IsInf(cost, 0) {
				return CostTable{}, fmt.Errorf("cost of operation %v in room %v must be a non-negative number: %v", operation, room, cost)
			}
			table.costs[costKey{operation, room}] = cost
			operations[operation] = true
		}
	}
	table.operations = lo.Keys(operations)
	slices.Sort(table.operations)

	return table, nil
}

func (table CostTable) Cost(operation, room string) (float64, bool) {
	cost, ok := table.costs[costKey{operation, room}]
	return cost, ok
}

func (table CostTable) Rooms() []string {
	return slices.Clone(table.rooms)
}

// Operations returns the operation codes with at least one cost entry
func (table CostTable) Operations() []string {
	return slices.Clone(table.operations)
}

func (table CostTable) Has(operation string) bool {
	_, found := slices.BinarySearch(table.operations, operation)
	return found
}

type costResolver interface {
	// Returns the cost of assigning the operation to the room or a MissingCostError
	Cost(operation, room string) (float64, error)
	// Returns the mean cost over the rooms with an entry for the operation, 0 when there is none
	AverageCost(operation string) float64
}

func newCostResolver(table CostTable) costResolver {
	return &tableCostResolver{table: table}
}

type tableCostResolver struct {
	table CostTable
}

func (resolver *tableCostResolver) Cost(operation, room string) (float64, error) {
	cost, ok := resolver.table.Cost(operation, room)
	if !ok {
		return 0, MissingCostError{Operation: operation, Room: room}
	}
	return cost, nil
}

func (resolver *tableCostResolver) AverageCost(operation string) float64 {
	costs := lo.FilterMap(resolver.table.rooms, func(room string, _ int) (float64, bool) {
		return resolver.table.Cost(operation, room)
	})
	if len(costs) == 0 {
		return 0
	}
	return lo.Sum(costs) / float64(len(costs))
}
