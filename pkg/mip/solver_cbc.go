package mip

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const defaultCbcPath = "cbc"

// CBC reports this objective when it stopped without an incumbent
const cbcNoSolutionObjective = 1e49

type cbcSolver struct {
	path      string
	timeLimit time.Duration
}

func NewCbcSolver(path string, timeLimit time.Duration) MIPSolver {
	return &cbcSolver{
		path:      path,
		timeLimit: timeLimit,
	}
}

func (solver *cbcSolver) Solve(ctx context.Context, model *Model) (Solution, error) {
	if solution, ok := trivialSolution(model); ok {
		return solution, nil
	}

	cbcPath, err := lookPath(solver.path, defaultCbcPath)
	if err != nil {
		return Solution{}, err
	}

	inputFile, err := writeModelFile(model)
	if err != nil {
		return Solution{}, err
	}
	defer os.Remove(inputFile) // Ensure the file is removed after execution

	outputFile, err := createOutputFile("cbc_output-*.sol")
	if err != nil {
		return Solution{}, err
	}
	defer os.Remove(outputFile) // Ensure the file is removed after execution

	args := []string{inputFile}
	if solver.timeLimit > 0 {
		args = append(args, "-sec", timeLimitSeconds(solver.timeLimit.Seconds()), "-timeMode", "elapsed")
	}
	args = append(args, "-branch", "-printingOptions", "all", "-solution", outputFile)

	cmd := exec.CommandContext(ctx, cbcPath, args...)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Solution{}, fmt.Errorf("an error occurred during cbc execution: %v : %v", err.Error(), stderr.String())
	}

	output, err := os.ReadFile(outputFile)
	if err != nil {
		return Solution{}, fmt.Errorf("failed to read output file: %v", err)
	}
	return parseCbcSolution(string(output), len(model.Variables))
}

// The first line holds the status and objective ("Optimal - objective value 3.00000000"), every other line a
// column: "<position> <name> <value> <reduced cost>", optionally prefixed with "**" when infeasible.
func parseCbcSolution(solverOutput string, variables int) (Solution, error) {
	lines := nonEmptyLines(solverOutput)
	if len(lines) == 0 {
		return Solution{}, fmt.Errorf("empty cbc solution")
	}

	header := strings.ToLower(lines[0])
	objective := 0.0
	if _, objectiveStr, ok := strings.Cut(header, "objective value"); ok {
		value, err := strconv.ParseFloat(strings.TrimSpace(objectiveStr), 64)
		if err != nil {
			return Solution{}, fmt.Errorf("invalid objective in cbc output: %v", err)
		}
		objective = value
	}

	solution := Solution{Objective: objective}
	switch {
	case strings.HasPrefix(header, "optimal"):
		solution.Status = StatusOptimal
	case strings.Contains(header, "infeasible"):
		return Solution{Status: StatusInfeasible}, nil
	case strings.HasPrefix(header, "stopped"):
		if objective >= cbcNoSolutionObjective {
			return Solution{Status: StatusUnknown}, nil
		}
		solution.Status = StatusFeasible
	default:
		return Solution{Status: StatusUnknown}, nil
	}

	solution.Values = make([]float64, variables)
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == "**" {
			fields = fields[1:]
		}
		if len(fields) < 3 {
			continue
		}

		variable, ok := variableIndex(fields[1], variables)
		if !ok {
			continue
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Solution{}, fmt.Errorf("invalid value in cbc output: %v", err)
		}
		solution.Values[variable] = value
	}
	return solution, nil
}
