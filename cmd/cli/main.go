package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/limaJavier/orscheduling/internal/config"
	"github.com/limaJavier/orscheduling/internal/logger"
	"github.com/limaJavier/orscheduling/internal/metrics"
	"github.com/limaJavier/orscheduling/pkg/mip"
	"github.com/limaJavier/orscheduling/pkg/model"
	"github.com/limaJavier/orscheduling/pkg/report"
)

// Exit codes
const (
	exitSolved             = 10
	exitVerificationFailed = 15
	exitInfeasible         = 20
	exitBoundedInfeasible  = 25
	exitUnknown            = 30
)

var (
	cfgPath        string
	filePath       string
	costsPath      string
	operationsPath string
	outPath        string
	format         string
	exitCode       int
	overrides      = flagOverrides{}
)

type flagOverrides struct {
	formulation string
	solver      string
	specialties []string
	match       string
	maxSets     int
	timeLimit   int
	logLevel    string
	metricsFile string
}

var rootCmd = &cobra.Command{
	Use:   "orschedule",
	Short: "Assign scheduled surgical operations to operating rooms at minimum cost",
	Long: `Builds an integer program for the given operations and cost table and solves it.

Formulations:
  direct          one binary variable per (operation, room) pair with a cost
  covering-cost   set covering over conflict-free operation sets, weighted by averaged cost
  covering-count  set covering minimizing the number of selected sets

Exit codes: 10 solved, 15 verification failed, 20 infeasible, 25 no cover within the
enumeration bound (raise --max-sets), 30 limit reached without solution.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		code, err := run(ctx, cmd)
		exitCode = code
		return err
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&cfgPath, "config", "c", "", "configuration file (YAML or JSON)")
	flags.StringVarP(&filePath, "file", "f", "", "JSON input file")
	flags.StringVar(&costsPath, "costs", "", "CSV cost table: rooms as rows, operation codes as columns")
	flags.StringVar(&operationsPath, "operations", "", "CSV operations table")
	flags.StringVarP(&outPath, "out", "o", "", "report file; standard output when empty")
	flags.StringVar(&format, "format", string(report.CSV), "report format: csv or json")
	flags.StringVar(&overrides.formulation, "formulation", "", "direct, covering-cost or covering-count")
	flags.StringVar(&overrides.solver, "solver", "", strings.Join(mip.SolverNames, ", "))
	flags.StringSliceVar(&overrides.specialties, "specialty", nil, "keep only operations of these specialties")
	flags.StringVar(&overrides.match, "match", "", "specialty matching: exact or contains")
	flags.IntVar(&overrides.maxSets, "max-sets", 0, "bound of the planification enumeration")
	flags.IntVar(&overrides.timeLimit, "time-limit", 0, "solver time limit in seconds")
	flags.StringVar(&overrides.logLevel, "log-level", "", "debug, info, warn or error")
	flags.StringVar(&overrides.metricsFile, "metrics-file", "", "node-exporter textfile receiving the run metrics")
}

func main() {
	// Optional .env file
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func run(ctx context.Context, cmd *cobra.Command) (int, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return 0, fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return 0, err
	}
	log := logger.New("cli")

	// Extract input
	input, err := loadInput(filePath, costsPath, operationsPath)
	if err != nil {
		return 0, fmt.Errorf("cannot parse input: %w", err)
	}
	input = input.Filter(cfg.Filter.SpecialtyFilter())
	log.Infof("%d operations and %d rooms loaded", len(input.Operations), len(input.Rooms()))

	// Initialize engines
	solver, err := mip.NewSolver(cfg.Solver.Name, cfg.Solver.Options())
	if err != nil {
		return 0, err
	}
	runLog := logger.New("assigner").With(map[string]any{"formulation": cfg.Formulation, "solver": cfg.Solver.Name})
	assigner, err := model.NewAssigner(model.Formulation(cfg.Formulation), solver, cfg.Enumeration.MaxSets, runLog)
	if err != nil {
		return 0, err
	}

	// External solvers enforce the limit themselves
	if cfg.Solver.Name == mip.BranchBound && cfg.Solver.TimeLimitSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Solver.TimeLimitSeconds)*time.Second)
		defer cancel()
	}

	// Build assignment
	start := time.Now()
	result, err := assigner.Build(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("an error occurred during model construction: %w", err)
	}
	elapsed := time.Since(start)

	verified := result.Solved() && assigner.Verify(result, input)
	if cfg.Metrics.File != "" {
		if err := writeMetrics(cfg.Metrics.File, cfg.Solver.Name, result, elapsed); err != nil {
			log.Errorf("%v", err)
		}
	}

	code := exitCodeFor(result, verified)
	if code == exitBoundedInfeasible {
		log.Warnf("no cover among the first %d planifications, the instance is not proven infeasible", result.Planifications)
	}
	if code != exitSolved {
		log.Warnf("no verified result: status %v, %d variables, %d constraints", result.Status, result.Variables, result.Constraints)
		return code, nil
	}

	// Render report
	rendered := report.New(result)
	if err := writeReport(outPath, report.Format(format), rendered); err != nil {
		return 0, fmt.Errorf("an error occurred while writing the report: %w", err)
	}

	log.Infof("run %v: %v, total cost %v, %d variables, %d constraints, %v", rendered.RunId, result.Status, result.TotalCost, result.Variables, result.Constraints, elapsed)
	return code, nil
}

// Only flags given on the command line replace configuration values
func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("formulation") {
		cfg.Formulation = strings.ToLower(overrides.formulation)
	}
	if flags.Changed("solver") {
		cfg.Solver.Name = strings.ToLower(overrides.solver)
	}
	if flags.Changed("specialty") {
		cfg.Filter.Specialties = overrides.specialties
	}
	if flags.Changed("match") {
		cfg.Filter.Match = strings.ToLower(overrides.match)
	}
	if flags.Changed("max-sets") {
		cfg.Enumeration.MaxSets = overrides.maxSets
	}
	if flags.Changed("time-limit") {
		cfg.Solver.TimeLimitSeconds = overrides.timeLimit
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = strings.ToLower(overrides.logLevel)
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.File = overrides.metricsFile
	}
}

func loadInput(file, costs, operations string) (model.ModelInput, error) {
	switch {
	case file != "" && (costs != "" || operations != ""):
		return model.ModelInput{}, errors.New("either a JSON file or the CSV tables must be given, not both")
	case file != "":
		return model.InputFromJson(file)
	case costs != "" && operations != "":
		return model.InputFromCsv(costs, operations)
	}
	return model.ModelInput{}, errors.New("an input must be specified: --file or both --costs and --operations")
}

func exitCodeFor(result model.Result, verified bool) int {
	switch {
	case result.Solved() && verified:
		return exitSolved
	case result.Solved():
		return exitVerificationFailed
	// Singletons always cover, so only a truncated enumeration makes covering infeasible
	case result.Status == mip.StatusInfeasible && result.Bounded:
		return exitBoundedInfeasible
	case result.Status == mip.StatusInfeasible:
		return exitInfeasible
	}
	return exitUnknown
}

func writeReport(path string, format report.Format, rendered report.Report) error {
	var out io.Writer = os.Stdout
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}
	return report.Write(out, format, rendered)
}

func writeMetrics(path, solver string, result model.Result, elapsed time.Duration) error {
	recorder, err := metrics.NewRecorder()
	if err != nil {
		return err
	}
	recorder.RecordRun(solver, result, elapsed)
	return recorder.WriteTextfile(path)
}
