package trace

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// WriteCSV writes the log with a header row, timestamps in RFC 3339.
func (l *Log) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"case_id", "activity", "timestamp", "resource", "lifecycle"}); err != nil {
		return fmt.Errorf("trace: write header: %w", err)
	}
	for _, e := range l.Events {
		row := []string{e.CaseID, e.Activity, e.Timestamp.Format(time.RFC3339), e.Resource, e.Lifecycle}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("trace: write event: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSONL writes one JSON object per line.
func (l *Log) WriteJSONL(w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, e := range l.Events {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("trace: encode event: %w", err)
		}
	}
	return nil
}

// Save writes the log to a file, picking the format from the extension:
// .csv for CSV, anything else for JSONL.
func (l *Log) Save(path string) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("trace: create %s: %w", path, err)
	}

	if filepath.Ext(path) == ".csv" {
		err = l.WriteCSV(f)
	} else {
		err = l.WriteJSONL(f)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
