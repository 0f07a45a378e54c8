// Package feed maintains the append-only alerts feed CSV.
package feed

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/dataset"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/riskerr"
)

// Store reads and appends to the feed at Path. It assumes a single writer.
type Store struct {
	path string
}

// NewStore creates a store for the feed at path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the feed location
func (s *Store) Path() string {
	return s.path
}

// Append adds alerts after every existing row and returns how many rows were written.
// Existing rows are never reordered, deduplicated or rewritten; when the file
// already uses the standard column order its bytes are kept verbatim.
// Appending nothing leaves the file untouched.
func (s *Store) Append(alerts []model.Alert) (int, error) {
	if len(alerts) == 0 {
		return 0, nil
	}

	existing, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, riskerr.NewStorageError("read feed", s.path, err)
	}

	var buf bytes.Buffer
	prefix, err := s.prefix(existing)
	if err != nil {
		return 0, riskerr.NewStorageError("read feed", s.path, err)
	}
	buf.Write(prefix)

	w := csv.NewWriter(&buf)
	for _, a := range alerts {
		if err := w.Write(a.Record()); err != nil {
			return 0, riskerr.NewStorageError("encode feed", s.path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, riskerr.NewStorageError("encode feed", s.path, err)
	}

	if err := writeFileAtomic(s.path, buf.Bytes()); err != nil {
		return 0, riskerr.NewStorageError("write feed", s.path, err)
	}
	return len(alerts), nil
}

// prefix returns the bytes that precede the new rows: the existing content
// when it is already in standard form, a re-projection of it otherwise, or
// just the header for an empty feed.
func (s *Store) prefix(existing []byte) ([]byte, error) {
	if len(bytes.TrimSpace(existing)) == 0 {
		return encodeRows([][]string{model.FeedColumns})
	}

	table, err := dataset.Parse(s.path, bytes.NewReader(existing))
	if err != nil {
		return nil, err
	}
	if !table.Has(model.ColMessageID) {
		return nil, fmt.Errorf("unrecognised feed header %v", table.Header)
	}

	if sameColumns(table.Header, model.FeedColumns) {
		if existing[len(existing)-1] != '\n' {
			existing = append(existing, '\n')
		}
		return existing, nil
	}

	// Legacy layout: rewrite existing rows in the standard column order.
	rows := make([][]string, 0, table.Len()+1)
	rows = append(rows, model.FeedColumns)
	for _, row := range table.Rows {
		projected := make([]string, len(model.FeedColumns))
		for i, col := range model.FeedColumns {
			projected[i] = table.Value(row, col)
		}
		rows = append(rows, projected)
	}
	return encodeRows(rows)
}

// Read returns every alert in the feed, in file order. A missing feed is empty.
func (s *Store) Read() ([]model.Alert, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, riskerr.NewStorageError("open feed", s.path, err)
	}
	defer f.Close()

	alerts, err := Decode(s.path, f)
	if err != nil {
		return nil, riskerr.NewStorageError("read feed", s.path, err)
	}
	return alerts, nil
}

// Decode parses feed CSV content into alerts
func Decode(source string, r io.Reader) ([]model.Alert, error) {
	table, err := dataset.Parse(source, r)
	if err != nil {
		return nil, err
	}

	alerts := make([]model.Alert, 0, table.Len())
	for _, row := range table.Rows {
		alerts = append(alerts, model.Alert{
			MessageID:   table.Value(row, model.ColMessageID),
			Timestamp:   model.ParseTimestamp(table.Value(row, model.ColDate)),
			Entity:      table.Value(row, model.ColEntity),
			ClusterID:   table.Value(row, model.ColClusterID),
			Score:       model.ParseScore(table.Value(row, model.ColScore)),
			Text:        table.Value(row, model.ColText),
			GeneratedAt: parseLocal(table.Value(row, model.ColGeneratedAt)),
		})
	}
	return alerts, nil
}

// Encode writes alerts as a complete feed document, header included
func Encode(w io.Writer, alerts []model.Alert) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.FeedColumns); err != nil {
		return err
	}
	for _, a := range alerts {
		if err := cw.Write(a.Record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// parseLocal reads alert_generated_at, which is written in local time
func parseLocal(raw string) time.Time {
	if t, err := time.ParseInLocation(model.TimestampLayout, raw, time.Local); err == nil {
		return t
	}
	return model.ParseTimestamp(raw)
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func encodeRows(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data to a temp file beside path and renames it into place
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create feed dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
