package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/orscheduling/pkg/mip"
)

func TestInputFromJson(t *testing.T) {
	// Act
	input, err := InputFromJson(testDirectory + "small.json")

	// Assert
	require.NoError(t, err)
	assertSmallInput(t, input)
}

func TestInputFromCsv(t *testing.T) {
	// Act
	input, err := InputFromCsv(testDirectory+"costes.csv", testDirectory+"operaciones.csv")

	// Assert
	require.NoError(t, err)
	assertSmallInput(t, input)
}

func TestInputFromJsonNullCost(t *testing.T) {
	// Arrange
	file := filepath.Join(t.TempDir(), "null.json")
	content := `{
		"operations": [{"id": "X", "specialty": "Cardiología", "start": "08:00", "end": "09:00"}],
		"rooms": ["A", "B"],
		"costs": {"A": {"X": null}, "B": {"X": 5}}
	}`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	// Act
	input, err := InputFromJson(file)

	// Assert
	require.NoError(t, err)
	_, ok := input.Costs.Cost("X", "A")
	assert.False(t, ok, "a null cell is a missing cost")
	cost, ok := input.Costs.Cost("X", "B")
	assert.True(t, ok)
	assert.Equal(t, 5.0, cost)

	result, err := NewDirectAssigner(mip.NewBranchBoundSolver(0), nil).Build(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, []MissingCostError{{Operation: "X", Room: "A"}}, result.MissingCosts)
	assert.Equal(t, map[string]string{"X": "B"}, result.AssignmentMap())
	assert.InDelta(t, 5.0, result.TotalCost, 1e-6)
}

func TestInputFromCsvMissingCells(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	costs := filepath.Join(dir, "costs.csv")
	require.NoError(t, os.WriteFile(costs, []byte(",OP 1,OP 2,OP 3,OP 4,OP 5\nQ1,10,,30,nan,7\n"), 0o644))

	// Act
	input, err := InputFromCsv(costs, testDirectory+"operaciones.csv")

	// Assert
	require.NoError(t, err)
	_, ok := input.Costs.Cost("OP_2", "Q1")
	assert.False(t, ok)
	_, ok = input.Costs.Cost("OP_4", "Q1")
	assert.False(t, ok)
	cost, ok := input.Costs.Cost("OP_5", "Q1")
	assert.True(t, ok)
	assert.Equal(t, 7.0, cost)
}

func assertSmallInput(t *testing.T, input ModelInput) {
	t.Helper()

	require.Len(t, input.Operations, 5)
	assert.Equal(t, Operation{
		Id:        "OP_1",
		Specialty: "Cardiología Pediátrica",
		Start:     8 * time.Hour,
		End:       10 * time.Hour,
	}, input.Operations[0])
	assert.Equal(t, "Traumatología", input.Operations[4].Specialty)
	assert.Equal(t, []string{"Q1", "Q2"}, input.Rooms())

	cost, ok := input.Costs.Cost("OP_3", "Q2")
	assert.True(t, ok)
	assert.Equal(t, 25.0, cost)

	_, ok = input.Costs.Cost("OP_5", "Q2")
	assert.False(t, ok)
}

func TestFilter(t *testing.T) {
	// Arrange
	input, err := InputFromJson(testDirectory + "small.json")
	require.NoError(t, err)

	scenarios := []struct {
		name     string
		filter   SpecialtyFilter
		expected []string
	}{
		{"Empty filter", SpecialtyFilter{}, []string{"OP_1", "OP_2", "OP_3", "OP_4", "OP_5"}},
		{"Exact", SpecialtyFilter{Specialties: []string{"Cardiología Pediátrica", "Cirugía Cardiovascular"}, Match: MatchExact}, []string{"OP_1", "OP_2", "OP_4"}},
		{"Exact is not a substring match", SpecialtyFilter{Specialties: []string{"Cardiología"}, Match: MatchExact}, []string{}},
		{"Contains", SpecialtyFilter{Specialties: []string{"Card"}, Match: MatchContains}, []string{"OP_1", "OP_2", "OP_3", "OP_4"}},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			// Act
			filtered := input.Filter(scenario.filter)

			// Assert
			ids := make([]string, 0)
			for _, operation := range filtered.Operations {
				ids = append(ids, operation.Id)
			}
			assert.Equal(t, scenario.expected, ids)
			assert.Equal(t, input.Rooms(), filtered.Rooms())
		})
	}
}

func TestProcessRawInputErrors(t *testing.T) {
	valid := RawOperation{Id: "A", Start: "08:00", End: "09:00"}

	scenarios := []struct {
		name  string
		input RawModelInput
	}{
		{"Invalid clock", RawModelInput{Operations: []RawOperation{{Id: "A", Start: "8h", End: "09:00"}}}},
		{"End before start", RawModelInput{Operations: []RawOperation{{Id: "A", Start: "10:00", End: "09:00"}}}},
		{"Empty interval", RawModelInput{Operations: []RawOperation{{Id: "A", Start: "10:00", End: "10:00"}}}},
		{"Missing id", RawModelInput{Operations: []RawOperation{{Id: " ", Start: "08:00", End: "09:00"}}}},
		{"Duplicate operation", RawModelInput{Operations: []RawOperation{valid, valid}}},
		{"Negative cost", RawModelInput{Operations: []RawOperation{valid}, Costs: map[string]map[string]*float64{"Q1": {"A": lo.ToPtr(-3.0)}}}},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			_, err := ProcessRawInput(scenario.input)
			assert.Error(t, err)
		})
	}
}

func TestInputFromCsvErrors(t *testing.T) {
	dir := t.TempDir()
	costs := filepath.Join(dir, "costs.csv")
	require.NoError(t, os.WriteFile(costs, []byte(",A\nQ1,ten\n"), 0o644))

	_, err := InputFromCsv(costs, testDirectory+"operaciones.csv")
	assert.Error(t, err)

	_, err = InputFromCsv(filepath.Join(dir, "missing.csv"), testDirectory+"operaciones.csv")
	assert.Error(t, err)
}

func TestClock(t *testing.T) {
	scenarios := []struct {
		value    string
		expected time.Duration
	}{
		{"08:00", 8 * time.Hour},
		{" 13:45 ", 13*time.Hour + 45*time.Minute},
		{"07:30:15", 7*time.Hour + 30*time.Minute + 15*time.Second},
		{"00:00", 0},
	}

	for _, scenario := range scenarios {
		clock, err := ParseClock(scenario.value)
		assert.NoError(t, err)
		assert.Equal(t, scenario.expected, clock)

		again, err := ParseClock(FormatClock(clock))
		assert.NoError(t, err)
		assert.Equal(t, clock, again)
	}

	_, err := ParseClock("25:00")
	assert.Error(t, err)
}
