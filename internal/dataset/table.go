// Package dataset loads the tabular CSV exports produced by the upstream
// classification pipeline.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
)

// Table is a header plus raw string rows. Columns are addressed by name.
type Table struct {
	Source string
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewTable builds a table from a header and rows
func NewTable(source string, header []string, rows [][]string) *Table {
	t := &Table{Source: source, Header: header, Rows: rows, index: make(map[string]int, len(header))}
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		t.Header[i] = name
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
	return t
}

// Parse reads a CSV document with a header row
func Parse(source string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return NewTable(source, []string{}, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, rec)
	}
	return NewTable(source, header, rows), nil
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Has reports whether the table has a column
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Missing returns the subset of cols absent from the header, in the order given
func (t *Table) Missing(cols ...string) []string {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Value returns a cell by column name; absent columns and short rows yield ""
func (t *Table) Value(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// Messages projects every row into a message record.
// Absent columns leave the corresponding fields empty; callers that need the
// full schema check Missing first.
func (t *Table) Messages() []model.Message {
	out := make([]model.Message, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.Message{
			ID:        t.Value(row, model.ColMessageID),
			Timestamp: model.ParseTimestamp(t.Value(row, model.ColDate)),
			Text:      t.Value(row, model.ColText),
			Entity:    t.Value(row, model.ColEntity),
			RiskLabel: t.Value(row, model.ColRiskLabel),
			Score:     model.ParseScore(t.Value(row, model.ColScore)),
			ClusterID: t.Value(row, model.ColClusterID),
		})
	}
	return out
}
