package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/limaJavier/orscheduling/pkg/model"
)

// Recorder records assignment runs in Prometheus metrics. A batch run has no scrape endpoint, so the metrics are
// written to a node-exporter textfile when the run ends.
type Recorder struct {
	registry *prometheus.Registry

	runs           *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	variables      *prometheus.GaugeVec
	constraints    *prometheus.GaugeVec
	planifications *prometheus.GaugeVec
	totalCost      *prometheus.GaugeVec
}

// NewRecorder registers the run metrics on a dedicated registry
func NewRecorder() (*Recorder, error) {
	labels := []string{"formulation", "solver"}
	recorder := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orscheduling_runs_total",
			Help: "Total number of assignment runs by outcome",
		}, []string{"formulation", "solver", "status", "bounded"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orscheduling_run_duration_seconds",
			Help:    "Time spent building and solving the model",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, labels),
		variables: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "orscheduling_model_variables",
			Help: "Binary variables of the last model",
		}, labels),
		constraints: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "orscheduling_model_constraints",
			Help: "Linear constraints of the last model",
		}, labels),
		planifications: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "orscheduling_planifications",
			Help: "Planifications enumerated for the last covering model",
		}, labels),
		totalCost: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "orscheduling_total_cost",
			Help: "Total cost of the last solution",
		}, labels),
	}

	for _, collector := range []prometheus.Collector{
		recorder.runs,
		recorder.duration,
		recorder.variables,
		recorder.constraints,
		recorder.planifications,
		recorder.totalCost,
	} {
		if err := recorder.registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return recorder, nil
}

// RecordRun records the outcome of one Build call
func (recorder *Recorder) RecordRun(solver string, result model.Result, elapsed time.Duration) {
	formulation := string(result.Formulation)

	recorder.runs.WithLabelValues(formulation, solver, result.Status.String(), strconv.FormatBool(result.Bounded)).Inc()
	recorder.duration.WithLabelValues(formulation, solver).Observe(elapsed.Seconds())
	recorder.variables.WithLabelValues(formulation, solver).Set(float64(result.Variables))
	recorder.constraints.WithLabelValues(formulation, solver).Set(float64(result.Constraints))
	if formulation != string(model.DirectFormulation) {
		recorder.planifications.WithLabelValues(formulation, solver).Set(float64(result.Planifications))
	}
	if result.Solved() {
		recorder.totalCost.WithLabelValues(formulation, solver).Set(result.TotalCost)
	}
}

// WriteTextfile writes every metric to path in the text exposition format
func (recorder *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, recorder.registry); err != nil {
		return fmt.Errorf("cannot write metrics to %v: %w", path, err)
	}
	return nil
}
