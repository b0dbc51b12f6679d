package model

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testDirectory = "./testdata/"

// Operations named "1", "2", ... spanning the given [start, end) hours
func hourOperations(intervals ...[2]int) []Operation {
	operations := make([]Operation, 0, len(intervals))
	for i, interval := range intervals {
		operations = append(operations, Operation{
			Id:        fmt.Sprint(i + 1),
			Specialty: "Cardiología Pediátrica",
			Start:     time.Duration(interval[0]) * time.Hour,
			End:       time.Duration(interval[1]) * time.Hour,
		})
	}
	return operations
}

// Every operation costs the same in every room
func uniformInput(t *testing.T, operations []Operation, rooms []string, cost float64) ModelInput {
	costs := make(map[string]map[string]float64)
	for _, room := range rooms {
		costs[room] = make(map[string]float64)
		for _, operation := range operations {
			costs[room][operation.Id] = cost
		}
	}
	return newInput(t, operations, rooms, costs)
}

func newInput(t *testing.T, operations []Operation, rooms []string, costs map[string]map[string]float64) ModelInput {
	table, err := NewCostTable(rooms, costs)
	require.NoError(t, err)
	return ModelInput{Operations: operations, Costs: table}
}
