package model

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

type operationRow struct {
	Id        string `csv:"Código_operación"`
	Specialty string `csv:"Especialidad_quirúrgica"`
	Start     string `csv:"Hora_inicio"`
	End       string `csv:"Hora_fin"`
}

// InputFromCsv loads an instance from two tables: a cost matrix whose first column names the rooms and whose
// remaining columns are operation codes, and an operations table with code, specialty, start and end columns.
// Headers are normalized with NormalizeName, e.g. "Hora inicio " becomes "Hora_inicio".
func InputFromCsv(costsFile, operationsFile string) (ModelInput, error) {
	rooms, costs, err := readCostMatrix(costsFile)
	if err != nil {
		return ModelInput{}, fmt.Errorf("cannot read cost table %v: %w", costsFile, err)
	}

	operations, err := readOperations(operationsFile)
	if err != nil {
		return ModelInput{}, fmt.Errorf("cannot read operations table %v: %w", operationsFile, err)
	}

	return ProcessRawInput(RawModelInput{
		Operations: operations,
		Rooms:      rooms,
		Costs:      costs,
	})
}

func readOperations(file string) ([]RawOperation, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	gocsv.SetHeaderNormalizer(NormalizeName)
	defer gocsv.SetHeaderNormalizer(gocsv.DefaultNameNormalizer())

	rows := make([]*operationRow, 0)
	if err := gocsv.UnmarshalBytes(content, &rows); err != nil {
		return nil, err
	}

	operations := make([]RawOperation, 0, len(rows))
	for _, row := range rows {
		operations = append(operations, RawOperation{
			Id:        row.Id,
			Specialty: row.Specialty,
			Start:     row.Start,
			End:       row.End,
		})
	}
	return operations, nil
}

// The operation codes are data, not a fixed set of columns, so the matrix is read as plain records
func readCostMatrix(file string) ([]string, map[string]map[string]*float64, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, err
	}

	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty cost table")
	}

	header := records[0]
	rooms := make([]string, 0, len(records)-1)
	costs := make(map[string]map[string]*float64, len(records)-1)
	for line, record := range records[1:] {
		room := strings.TrimSpace(record[0])
		if room == "" {
			return nil, nil, fmt.Errorf("line %d: missing room", line+2)
		}
		rooms = append(rooms, room)
		costs[room] = make(map[string]*float64, len(header)-1)

		for column := 1; column < len(record) && column < len(header); column++ {
			cell := strings.TrimSpace(record[column])
			// Empty cells are missing costs
			if cell == "" {
				costs[room][NormalizeName(header[column])] = nil
				continue
			}
			cost, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d, column %v: %w", line+2, header[column], err)
			}
			if math.IsNaN(cost) {
				costs[room][NormalizeName(header[column])] = nil
				continue
			}
			costs[room][NormalizeName(header[column])] = &cost
		}
	}

	return rooms, costs, nil
}
