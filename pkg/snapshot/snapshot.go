package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/engine"
)

// DefaultPath is the baseline file used when none is given.
const DefaultPath = ".grc-snapshot.json"

// Snapshot is a saved record set.
type Snapshot struct {
	RunID   string              `json:"run_id"`
	SavedAt time.Time           `json:"saved_at"`
	Records []engine.RiskRecord `json:"records"`
}

// Diff classifies records of the current run against a baseline.
type Diff struct {
	New       []engine.RiskRecord
	Fixed     []engine.RiskRecord
	Unchanged []engine.RiskRecord
	// ALEDelta is current total ALE minus baseline total ALE.
	ALEDelta float64
}

// Key identifies a finding across runs.
func Key(r engine.RiskRecord) string {
	return r.AssetUID + "|" + r.FindingCode
}

// Save writes records as a baseline.
func Save(path, runID string, records []engine.RiskRecord) error {
	if records == nil {
		records = []engine.RiskRecord{}
	}
	snap := Snapshot{RunID: runID, SavedAt: time.Now().UTC(), Records: records}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", path, err)
	}
	return nil
}

// Load reads a baseline. A plain records array is accepted too, so any
// records file can serve as a baseline.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err == nil {
		return &snap, nil
	}

	var records []engine.RiskRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return &Snapshot{Records: records}, nil
}

// Compare reports what appeared, disappeared, or stayed between baseline and
// current. Result slices follow the order of their source record set.
func Compare(baseline, current []engine.RiskRecord) Diff {
	var d Diff

	prev := make(map[string]bool, len(baseline))
	var prevTotal float64
	for _, r := range baseline {
		prev[Key(r)] = true
		prevTotal += r.ALE
	}

	curr := make(map[string]bool, len(current))
	var currTotal float64
	for _, r := range current {
		curr[Key(r)] = true
		currTotal += r.ALE
		if prev[Key(r)] {
			d.Unchanged = append(d.Unchanged, r)
		} else {
			d.New = append(d.New, r)
		}
	}

	for _, r := range baseline {
		if !curr[Key(r)] {
			d.Fixed = append(d.Fixed, r)
		}
	}

	d.ALEDelta = currTotal - prevTotal
	return d
}

// Print renders the diff, listing at most limit unchanged records.
func Print(w io.Writer, label string, d Diff, limit int) {
	fmt.Fprintf(w, "Snapshot Comparison (vs %s):\n", label)
	fmt.Fprintln(w, "--------------------------------------------------")

	fmt.Fprintf(w, "NEW RISKS: %d\n", len(d.New))
	for _, r := range byALE(d.New) {
		fmt.Fprintf(w, "  [+] %-8s %s on %s (ALE $%.2f)\n", r.Severity, r.FindingCode, r.Asset, r.ALE)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "FIXED RISKS: %d\n", len(d.Fixed))
	for _, r := range byALE(d.Fixed) {
		fmt.Fprintf(w, "  [-] %-8s %s on %s (ALE $%.2f)\n", r.Severity, r.FindingCode, r.Asset, r.ALE)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "UNCHANGED RISKS: %d\n", len(d.Unchanged))
	for i, r := range byALE(d.Unchanged) {
		if i == limit {
			fmt.Fprintf(w, "  ... and %d more.\n", len(d.Unchanged)-limit)
			break
		}
		fmt.Fprintf(w, "  [=] %-8s %s on %s (ALE $%.2f)\n", r.Severity, r.FindingCode, r.Asset, r.ALE)
	}
	fmt.Fprintln(w)

	sign := "+"
	if d.ALEDelta < 0 {
		sign = "-"
	}
	delta := d.ALEDelta
	if delta < 0 {
		delta = -delta
	}
	fmt.Fprintf(w, "ALE CHANGE: %s$%.2f\n", sign, delta)
}

func byALE(records []engine.RiskRecord) []engine.RiskRecord {
	out := make([]engine.RiskRecord, len(records))
	copy(out, records)
	engine.SortByALE(out)
	return out
}
