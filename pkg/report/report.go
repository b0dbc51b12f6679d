package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/limaJavier/orscheduling/pkg/model"
)

type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

// Row is one line of the rendered table: an assignment of the direct formulation or a selected planification of the
// covering ones
type Row struct {
	Planification string  `csv:"planification" json:"planification,omitempty"`
	Operations    string  `csv:"operations" json:"operations"`
	Room          string  `csv:"room" json:"room,omitempty"`
	Cost          float64 `csv:"cost" json:"cost"`
	Note          string  `csv:"note" json:"note,omitempty"`
}

type Report struct {
	RunId       string  `json:"runId"`
	Formulation string  `json:"formulation"`
	Status      string  `json:"status"`
	Proven      bool    `json:"proven"`
	Bounded     bool    `json:"bounded"`
	Objective   float64 `json:"objective"`
	TotalCost   float64 `json:"totalCost"`
	Rows        []Row   `json:"rows"`
}

func New(result model.Result) Report {
	report := Report{
		RunId:       uuid.NewString(),
		Formulation: string(result.Formulation),
		Status:      result.Status.String(),
		Proven:      result.Proven(),
		Bounded:     result.Bounded,
		Objective:   result.Objective,
		TotalCost:   result.TotalCost,
		Rows:        make([]Row, 0, len(result.Assignments)+len(result.Cover)+len(result.Unassigned)),
	}

	for _, assignment := range result.Assignments {
		report.Rows = append(report.Rows, Row{
			Operations: assignment.Operation,
			Room:       assignment.Room,
			Cost:       assignment.Cost,
		})
	}

	for _, planification := range result.Cover {
		row := Row{
			Planification: strconv.Itoa(planification.Index),
			Operations:    strings.Join(planification.Operations, " "),
			Room:          planification.Room,
			Cost:          planification.Cost,
		}
		if len(planification.Scheduled) < len(planification.Operations) {
			row.Note = "scheduled: " + strings.Join(planification.Scheduled, " ")
		}
		report.Rows = append(report.Rows, row)
	}

	for _, operation := range result.Unassigned {
		report.Rows = append(report.Rows, Row{
			Operations: operation,
			Note:       "unassigned: no cost entries",
		})
	}

	return report
}

// Write renders the report. The CSV table ends with a total row.
func Write(w io.Writer, format Format, report Report) error {
	switch format {
	case CSV:
		rows := append(slices.Clone(report.Rows), Row{
			Operations: "Total",
			Cost:       report.TotalCost,
			Note:       report.Status,
		})
		return gocsv.Marshal(&rows, w)
	case JSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}
	return fmt.Errorf("%v is not a valid report format", format)
}
