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

const defaultGlpkPath = "glpsol"

type glpkSolver struct {
	path      string
	timeLimit time.Duration
}

func NewGlpkSolver(path string, timeLimit time.Duration) MIPSolver {
	return &glpkSolver{
		path:      path,
		timeLimit: timeLimit,
	}
}

func (solver *glpkSolver) Solve(ctx context.Context, model *Model) (Solution, error) {
	if solution, ok := trivialSolution(model); ok {
		return solution, nil
	}

	glpsolPath, err := lookPath(solver.path, defaultGlpkPath)
	if err != nil {
		return Solution{}, err
	}

	inputFile, err := writeModelFile(model)
	if err != nil {
		return Solution{}, err
	}
	defer os.Remove(inputFile) // Ensure the file is removed after execution

	outputFile, err := createOutputFile("glpk_output-*.txt")
	if err != nil {
		return Solution{}, err
	}
	defer os.Remove(outputFile) // Ensure the file is removed after execution

	args := []string{"--lp", inputFile}
	if solver.timeLimit > 0 {
		args = append(args, "--tmlim", timeLimitSeconds(solver.timeLimit.Seconds()))
	}
	args = append(args, "-w", outputFile)

	cmd := exec.CommandContext(ctx, glpsolPath, args...)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err = cmd.Run()
	// glpsol gives up before writing a solution when the relaxation has no feasible point
	if glpkReportsInfeasible(stdOut.String()) {
		return Solution{Status: StatusInfeasible}, nil
	} else if err != nil {
		return Solution{}, fmt.Errorf("an error occurred during glpsol execution: %v : %v", err.Error(), stderr.String())
	}

	output, err := os.ReadFile(outputFile)
	if err != nil {
		return Solution{}, fmt.Errorf("failed to read output file: %v", err)
	}
	return parseGlpkSolution(string(output), len(model.Variables))
}

func glpkReportsInfeasible(stdOut string) bool {
	upper := strings.ToUpper(stdOut)
	return strings.Contains(upper, "NO PRIMAL FEASIBLE SOLUTION") || strings.Contains(upper, "NO INTEGER FEASIBLE SOLUTION")
}

// Parses the plain-text solution written by "glpsol -w": a "s mip <rows> <cols> <status> <objective>" line followed by
// "j <column> <value>" lines; columns are numbered from 1 in the order they first appear in the LP file.
func parseGlpkSolution(solverOutput string, variables int) (Solution, error) {
	solution := Solution{Status: StatusUnknown}
	found := false

	for _, line := range nonEmptyLines(solverOutput) {
		fields := strings.Fields(line)
		switch fields[0] {
		case "s":
			if len(fields) < 6 || fields[1] != "mip" {
				return Solution{}, fmt.Errorf("unexpected glpk solution line: %v", line)
			}
			found = true

			switch fields[4] {
			case "o":
				solution.Status = StatusOptimal
			case "f":
				solution.Status = StatusFeasible
			case "n":
				return Solution{Status: StatusInfeasible}, nil
			default:
				return Solution{Status: StatusUnknown}, nil
			}

			objective, err := strconv.ParseFloat(fields[5], 64)
			if err != nil {
				return Solution{}, fmt.Errorf("invalid objective in glpk output: %v", err)
			}
			solution.Objective = objective
			solution.Values = make([]float64, variables)
		case "j":
			if !found || len(fields) < 3 {
				continue
			}
			column, err := strconv.Atoi(fields[1])
			if err != nil {
				return Solution{}, fmt.Errorf("invalid column in glpk output: %v", err)
			}
			value, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return Solution{}, fmt.Errorf("invalid value in glpk output: %v", err)
			}
			if column >= 1 && column <= variables {
				solution.Values[column-1] = value
			}
		}
	}

	if !found {
		return Solution{}, fmt.Errorf("glpk output holds no mip solution line")
	}
	return solution, nil
}
