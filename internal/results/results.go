// Package results assembles parsed construct instances into a fixed-column
// tabular form and writes it out.
package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/frey-perez/encoding-prompter/internal/parser"
)

// Columns is the fixed output column order. A zero-row table still carries it.
var Columns = []string{"doc_id", "speaker_id", "construct", "quote", "confidence"}

// Row is one construct instance in tabular form.
type Row struct {
	DocID      string `json:"doc_id"`
	SpeakerID  string `json:"speaker_id"`
	Construct  string `json:"construct"`
	Quote      string `json:"quote"`
	Confidence int    `json:"confidence"`
}

// Table is an ordered sequence of rows.
type Table struct {
	Rows []Row
}

// FromInstances maps instances to rows, preserving order. Empty input yields
// a zero-row table.
func FromInstances(instances []parser.Instance) Table {
	rows := make([]Row, 0, len(instances))
	for _, inst := range instances {
		rows = append(rows, Row{
			DocID:      inst.DocID,
			SpeakerID:  inst.SpeakerID,
			Construct:  inst.Construct,
			Quote:      inst.Quote,
			Confidence: inst.Confidence,
		})
	}
	return Table{Rows: rows}
}

// Merge concatenates tables in input order. Merging nothing yields a
// zero-row table.
func Merge(tables []Table) Table {
	var merged Table
	for _, t := range tables {
		merged.Rows = append(merged.Rows, t.Rows...)
	}
	return merged
}

// WriteCSV writes the table, header included, to w.
func (t Table) WriteCSV(w io.Writer) error {
	out := csv.NewWriter(w)

	if err := out.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows {
		record := []string{row.DocID, row.SpeakerID, row.Construct, row.Quote, strconv.Itoa(row.Confidence)}
		if err := out.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
