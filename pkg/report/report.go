package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/engine"
)

// DefaultRecordsPath is where quantify writes records when --out is not given.
const DefaultRecordsPath = "risk_quantification_report.json"

// SummaryPath derives the summary file name from the records file name:
// report.json becomes report_summary.json.
func SummaryPath(out string) string {
	if strings.HasSuffix(strings.ToLower(out), ".json") {
		return out[:len(out)-len(".json")] + "_summary.json"
	}
	return out + "_summary.json"
}

// WriteRecords writes the record set as an indented JSON array. An empty set
// is written as [] rather than null.
func WriteRecords(path string, records []engine.RiskRecord) error {
	if records == nil {
		records = []engine.RiskRecord{}
	}
	return writeJSON(path, records)
}

// WriteSummary writes the aggregate next to the records.
func WriteSummary(path string, s engine.RiskSummary) error {
	return writeJSON(path, s)
}

// LoadRecords reads a records file produced by WriteRecords.
func LoadRecords(path string) ([]engine.RiskRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records %q: %w", path, err)
	}
	var records []engine.RiskRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse records %q: %w", path, err)
	}
	return records, nil
}

func writeJSON(path string, v interface{}) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := encodeJSON(f, v); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// encodeJSON writes v indented and closes wc. A failed Close is reported.
func encodeJSON(wc io.WriteCloser, v interface{}) error {
	enc := json.NewEncoder(wc)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}
