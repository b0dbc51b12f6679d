package mip

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Models without variables are decided by evaluating their constraints at zero, no backend is involved
func trivialSolution(model *Model) (Solution, bool) {
	if len(model.Variables) > 0 {
		return Solution{}, false
	}

	objective, feasible := model.Evaluate(nil)
	if !feasible {
		return Solution{Status: StatusInfeasible}, true
	}
	return Solution{Status: StatusOptimal, Objective: objective, Values: []float64{}}, true
}

func lookPath(path, fallback string) (string, error) {
	if path == "" {
		path = fallback
	}
	executable, err := exec.LookPath(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSolverNotFound, err)
	}
	return executable, nil
}

// Writes the model in CPLEX-LP format into a temporary file and returns its name; the caller removes it
func writeModelFile(model *Model) (string, error) {
	inputTempFile, err := os.CreateTemp("", "model-*.lp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %v", err)
	}

	if _, err := inputTempFile.WriteString(model.ToLP()); err != nil {
		inputTempFile.Close()
		os.Remove(inputTempFile.Name())
		return "", fmt.Errorf("failed to write model to temporary file: %v", err)
	}
	if err := inputTempFile.Close(); err != nil {
		os.Remove(inputTempFile.Name())
		return "", fmt.Errorf("failed to close temporary file: %v", err)
	}
	return inputTempFile.Name(), nil
}

func createOutputFile(pattern string) (string, error) {
	outputTempFile, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %v", err)
	}
	outputTempFile.Close()
	return outputTempFile.Name(), nil
}

// Maps an "x<index>" column name back to its variable index
func variableIndex(name string, variables int) (int, bool) {
	if !strings.HasPrefix(name, "x") {
		return 0, false
	}
	index, err := strconv.Atoi(name[1:])
	if err != nil || index < 0 || index >= variables {
		return 0, false
	}
	return index, true
}

func timeLimitSeconds(seconds float64) string {
	return strconv.Itoa(int(math.Ceil(seconds)))
}

func nonEmptyLines(output string) []string {
	return lo.Filter(
		lo.Map(strings.Split(output, "\n"), func(line string, _ int) string { return strings.TrimSpace(line) }),
		func(line string, _ int) bool { return line != "" },
	)
}
