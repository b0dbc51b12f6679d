package model

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

type RawOperation struct {
	Id        string
	Specialty string
	Start     string
	End       string
}

// RawModelInput is the loader-facing shape of an instance. Costs are keyed by room first and operation code second,
// mirroring the cost table where rows are rooms and columns are operation codes. A nil cost (a JSON null cell) is a
// missing entry, not a free one.
type RawModelInput struct {
	Operations []RawOperation
	Rooms      []string
	Costs      map[string]map[string]*float64
}

// Operation times are offsets since midnight of the single scheduling day
type Operation struct {
	Id        string `validate:"required"`
	Specialty string
	Start     time.Duration `validate:"gte=0"`
	End       time.Duration `validate:"gtfield=Start,lte=24h"`
}

// Overlaps reports whether both operations share some instant; abutting operations do not overlap
func (operation Operation) Overlaps(other Operation) bool {
	return Overlaps(operation.Start, operation.End, other.Start, other.End)
}

type ModelInput struct {
	Operations []Operation
	Costs      CostTable
}

func (modelInput ModelInput) Rooms() []string {
	return modelInput.Costs.Rooms()
}

type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchContains MatchMode = "contains"
)

type SpecialtyFilter struct {
	Specialties []string
	Match       MatchMode
}

// Filter keeps the operations whose specialty matches the filter. An empty filter keeps everything.
func (modelInput ModelInput) Filter(filter SpecialtyFilter) ModelInput {
	if len(filter.Specialties) == 0 {
		return modelInput
	}

	operations := lo.Filter(modelInput.Operations, func(operation Operation, _ int) bool {
		if filter.Match == MatchContains {
			return lo.SomeBy(filter.Specialties, func(specialty string) bool {
				return strings.Contains(operation.Specialty, specialty)
			})
		}
		return slices.Contains(filter.Specialties, operation.Specialty)
	})

	return ModelInput{
		Operations: operations,
		Costs:      modelInput.Costs,
	}
}

func InputFromJson(file string) (ModelInput, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return ModelInput{}, err
	}
	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return ModelInput{}, err
	}

	var rawInput RawModelInput
	if err := mapstructure.Decode(inputJson, &rawInput); err != nil {
		return ModelInput{}, fmt.Errorf("cannot decode input file %v: %w", file, err)
	}
	return ProcessRawInput(rawInput)
}

func ProcessRawInput(rawInput RawModelInput) (ModelInput, error) {
	validate := validator.New()

	//** Manage operations
	operations := make([]Operation, 0, len(rawInput.Operations))
	seen := make(map[string]bool)
	for position, rawOperation := range rawInput.Operations {
		start, err := ParseClock(rawOperation.Start)
		if err != nil {
			return ModelInput{}, fmt.Errorf("operation %d (%v): invalid start: %w", position, rawOperation.Id, err)
		}
		end, err := ParseClock(rawOperation.End)
		if err != nil {
			return ModelInput{}, fmt.Errorf("operation %d (%v): invalid end: %w", position, rawOperation.Id, err)
		}

		operation := Operation{
			Id:        NormalizeName(rawOperation.Id),
			Specialty: strings.TrimSpace(rawOperation.Specialty),
			Start:     start,
			End:       end,
		}
		if err := validate.Struct(operation); err != nil {
			return ModelInput{}, fmt.Errorf("operation %d (%v): %w", position, rawOperation.Id, err)
		}

		// Operation codes identify the cost columns, so they must be unique
		if seen[operation.Id] {
			return ModelInput{}, fmt.Errorf("duplicate operation %v", operation.Id)
		}
		seen[operation.Id] = true
		operations = append(operations, operation)
	}

	//** Manage costs
	rooms := lo.Map(rawInput.Rooms, func(room string, _ int) string { return strings.TrimSpace(room) })
	costs := make(map[string]map[string]float64, len(rawInput.Costs))
	for room, row := range rawInput.Costs {
		room = strings.TrimSpace(room)
		if _, ok := costs[room]; !ok {
			costs[room] = make(map[string]float64, len(row))
		}
		for operation, cost := range row {
			if cost == nil {
				continue
			}
			costs[room][NormalizeName(operation)] = *cost
		}
	}

	costTable, err := NewCostTable(rooms, costs)
	if err != nil {
		return ModelInput{}, err
	}

	return ModelInput{
		Operations: operations,
		Costs:      costTable,
	}, nil
}

// NormalizeName trims a header or operation code and replaces inner spaces by underscores, so codes written in
// either table match each other
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}

// ParseClock parses a time of day written as HH:MM or HH:MM:SS
func ParseClock(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"15:04:05", "15:04"} {
		clock, err := time.Parse(layout, value)
		if err == nil {
			return time.Duration(clock.Hour())*time.Hour +
				time.Duration(clock.Minute())*time.Minute +
				time.Duration(clock.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("%q is not a time of day", value)
}

// FormatClock is the inverse of ParseClock
func FormatClock(value time.Duration) string {
	hours := int(value / time.Hour)
	minutes := int((value % time.Hour) / time.Minute)
	seconds := int((value % time.Minute) / time.Second)
	if seconds == 0 {
		return fmt.Sprintf("%02d:%02d", hours, minutes)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
