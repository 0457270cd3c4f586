package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-bold/glm/design"
	"gonum.org/v1/gonum/mat"
)

var errTable = errors.New("boldfit: malformed table")

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	return cr
}

// readMatrix parses a headerless numeric table.
func readMatrix(r io.Reader) (*mat.Dense, error) {
	records, err := newReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errTable, err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("%w: empty", errTable)
	}

	rows, cols := len(records), len(records[0])
	data := make([]float64, 0, rows*cols)
	for i, rec := range records {
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %d: %w", errTable, i+1, j+1, err)
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(rows, cols, data), nil
}

// writeMatrix writes m with an optional leading label per row.
func writeMatrix(w io.Writer, m mat.Matrix, labels []string) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	rows, cols := m.Dims()
	for i := range rows {
		rec := make([]string, 0, cols+1)
		if labels != nil {
			rec = append(rec, labels[i])
		}
		for j := range cols {
			rec = append(rec, strconv.FormatFloat(m.At(i, j), 'g', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeInts writes one row per slice.
func writeInts(w io.Writer, rows [][]int) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	for _, row := range rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = strconv.Itoa(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// readEvents parses an events table with a header. Runs are 1-based. A
// missing modulation column means unit modulation.
func readEvents(r io.Reader) (design.Events, error) {
	records, err := newReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errTable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: events table has no header", errTable)
	}

	header := records[0]
	col := func(name string) int { return slices.Index(header, name) }
	onset, duration, cond, run, mod := col("onset"), col("duration"), col("trial_type"), col("run"), col("modulation")
	if onset < 0 || duration < 0 || cond < 0 || run < 0 {
		return nil, fmt.Errorf("%w: events header needs onset, duration, trial_type and run, got %v", errTable, header)
	}

	events := make(design.Events, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		ev := design.Event{Condition: rec[cond], Modulation: 1}
		if ev.Onset, err = strconv.ParseFloat(rec[onset], 64); err != nil {
			return nil, fmt.Errorf("%w: line %d onset: %w", errTable, line, err)
		}
		if ev.Duration, err = strconv.ParseFloat(rec[duration], 64); err != nil {
			return nil, fmt.Errorf("%w: line %d duration: %w", errTable, line, err)
		}
		if ev.Run, err = strconv.Atoi(rec[run]); err != nil {
			return nil, fmt.Errorf("%w: line %d run: %w", errTable, line, err)
		}
		if mod >= 0 {
			if ev.Modulation, err = strconv.ParseFloat(rec[mod], 64); err != nil {
				return nil, fmt.Errorf("%w: line %d modulation: %w", errTable, line, err)
			}
		}
		events = append(events, ev)
	}
	return events, nil
}
