package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/limaJavier/orscheduling/internal/logger"
	"github.com/limaJavier/orscheduling/pkg/mip"
	"github.com/limaJavier/orscheduling/pkg/model"
)

type ResultType string

const (
	solved             ResultType = "solved"
	infeasible         ResultType = "infeasible"
	boundedInfeasible  ResultType = "bounded-infeasible"
	unknown            ResultType = "unknown"
	verificationFailed ResultType = "verification-failed"
)

var exitCodes = map[int]ResultType{
	10: solved,
	15: verificationFailed,
	20: infeasible,
	25: boundedInfeasible,
	30: unknown,
}

type InstanceMetadata struct {
	Name        string `csv:"instance"`
	Operations  int    `csv:"operations"`
	Rooms       int    `csv:"rooms"`
	CostEntries int    `csv:"cost_entries"`
}

type BenchmarkResult struct {
	Formulation string `csv:"formulation"`
	Solver      string `csv:"solver"`
	InstanceMetadata
	Duration      int64      `csv:"duration_ms"`
	Memory        float32    `csv:"memory_mb"`
	CpuPercentage int64      `csv:"cpu_percentage"`
	Result        ResultType `csv:"result"`
}

var (
	executablePath    string
	instanceDirectory string
	outputPath        string
	timeLimit         int
	solvers           []string
	formulations      []string
)

var rootCmd = &cobra.Command{
	Use:          "benchmark",
	Short:        "Run every formulation and solver over a directory of JSON instances",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&executablePath, "bin", "../../bin/orschedule", "assignment executable")
	flags.StringVar(&instanceDirectory, "instances", "../../test/instances/", "directory of JSON instances")
	flags.StringVar(&outputPath, "out", "benchmark_results.csv", "results file")
	flags.IntVar(&timeLimit, "time-limit", 60, "solver time limit in seconds")
	flags.StringSliceVar(&solvers, "solver", mip.SolverNames, "solvers to benchmark")
	flags.StringSliceVar(&formulations, "formulation", lo.Map(model.Formulations, func(formulation model.Formulation, _ int) string {
		return string(formulation)
	}), "formulations to benchmark")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	log := logger.New("benchmark")

	instances, err := getInstances(instanceDirectory)
	if err != nil {
		return err
	}
	results := make([]BenchmarkResult, 0, len(instances)*len(formulations)*len(solvers))

	for _, instance := range instances {
		for _, formulation := range formulations {
			for _, solver := range solvers {
				log.Infof("Benchmarking instance \"%v\" with formulation \"%v\" and solver \"%v\"", instance.Name, formulation, solver)

				result, err := measure(formulation, solver, instance.Name)
				if err != nil {
					return err
				}
				result.Formulation = formulation
				result.Solver = solver
				result.InstanceMetadata = instance
				results = append(results, result)
			}
		}
	}

	return toCsv(outputPath, results)
}

func getInstances(directory string) ([]InstanceMetadata, error) {
	files, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory: %w", err)
	}

	instances := make([]InstanceMetadata, 0, len(files))
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		filename := filepath.Join(directory, file.Name())
		input, err := model.InputFromJson(filename)
		if err != nil {
			return nil, fmt.Errorf("cannot parse input file %v: %w", filename, err)
		}

		entries := 0
		for _, operation := range input.Operations {
			for _, room := range input.Rooms() {
				if _, ok := input.Costs.Cost(operation.Id, room); ok {
					entries++
				}
			}
		}

		instances = append(instances, InstanceMetadata{
			Name:        filename,
			Operations:  len(input.Operations),
			Rooms:       len(input.Rooms()),
			CostEntries: entries,
		})
	}
	return instances, nil
}

func measure(formulation, solver, instance string) (BenchmarkResult, error) {
	cmd := exec.Command("/usr/bin/time", "-v", executablePath,
		"--formulation", formulation,
		"--solver", solver,
		"--time-limit", strconv.Itoa(timeLimit),
		"--file", instance,
		"--out", os.DevNull,
	)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	// Non-zero exit codes are the outcome, not a failure
	_ = cmd.Run()
	if cmd.ProcessState == nil {
		return BenchmarkResult{}, fmt.Errorf("cannot start %v", executablePath)
	}
	result, ok := exitCodes[cmd.ProcessState.ExitCode()]
	if !ok {
		return BenchmarkResult{}, fmt.Errorf("an error occurred during the execution at instance \"%v\" using formulation \"%v\" and solver \"%v\": %v", instance, formulation, solver, stdErr.String())
	}

	return parseTimeOutput(stdErr.String(), result)
}

// Reads the report of GNU time -v
func parseTimeOutput(output string, result ResultType) (BenchmarkResult, error) {
	splits := strings.Split(output, "\n")
	getLine := func(substr string) (string, error) {
		line, ok := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			return "", fmt.Errorf("substring \"%v\" could not be found", substr)
		}
		return line, nil
	}

	line, err := getLine("wall clock")
	if err != nil {
		return BenchmarkResult{}, err
	}
	duration, err := parseDurationLine(line)
	if err != nil {
		return BenchmarkResult{}, err
	}

	if line, err = getLine("maximum resident set size"); err != nil {
		return BenchmarkResult{}, err
	}
	memory, err := parseMemoryLine(line)
	if err != nil {
		return BenchmarkResult{}, err
	}

	if line, err = getLine("percent of cpu"); err != nil {
		return BenchmarkResult{}, err
	}
	cpuPercentage, err := parseCpuPercentageLine(line)
	if err != nil {
		return BenchmarkResult{}, err
	}

	return BenchmarkResult{
		Duration:      duration,
		Memory:        memory,
		CpuPercentage: cpuPercentage,
		Result:        result,
	}, nil
}

func toCsv(path string, results []BenchmarkResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create CSV file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&results, file); err != nil {
		return fmt.Errorf("cannot write CSV records: %w", err)
	}
	return nil
}

func parseDurationLine(line string) (int64, error) {
	_, durationStr, ok := strings.Cut(line, "(h:mm:ss or m:ss):")
	if !ok {
		return 0, fmt.Errorf("unexpected duration line: %v", line)
	}
	return parseDuration(strings.TrimSpace(durationStr))
}

func parseDuration(durationStr string) (int64, error) {
	parts := strings.Split(durationStr, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("unexpected duration format: %v", durationStr)
	}
	secondsParts := strings.Split(parts[len(parts)-1], ".")
	if len(secondsParts) != 2 {
		return 0, fmt.Errorf("unexpected duration format: %v", durationStr)
	}

	// h:mm:ss or m:ss
	fields := append(parts[:len(parts)-1:len(parts)-1], secondsParts...)
	values := make([]int, len(fields))
	for i, field := range fields {
		value, err := strconv.Atoi(field)
		if err != nil {
			return 0, fmt.Errorf("unexpected duration format: %v", durationStr)
		}
		values[i] = value
	}

	hours := 0
	if len(values) == 4 {
		hours, values = values[0], values[1:]
	}
	minutes, seconds, hundredthOfSeconds := values[0], values[1], values[2]
	return int64(hours*3600+minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10), nil
}

func parseMemoryLine(line string) (float32, error) {
	_, memoryStr, ok := strings.Cut(line, ":")
	if !ok {
		return 0, fmt.Errorf("unexpected memory line: %v", line)
	}
	kilobytes, err := strconv.ParseFloat(strings.TrimSpace(memoryStr), 32)
	if err != nil {
		return 0, err
	}
	return float32(kilobytes) / 1024, nil
}

func parseCpuPercentageLine(line string) (int64, error) {
	_, percentageStr, ok := strings.Cut(line, ":")
	if !ok {
		return 0, errors.New("unexpected cpu line: " + line)
	}
	percentageStr = strings.TrimSuffix(strings.TrimSpace(percentageStr), "%")
	percentage, err := strconv.Atoi(percentageStr)
	if err != nil {
		return 0, err
	}
	return int64(percentage), nil
}
