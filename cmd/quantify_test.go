package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/engine"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/logger"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/report"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/snapshot"
)

const testFindings = `[
  {
    "severity": "Critical",
    "status_code": "FAIL",
    "metadata": {"event_code": "s3_bucket_public_access"},
    "resources": [{"uid": "arn:aws:s3:::customer-records", "name": "customer-records", "type": "AwsS3Bucket", "region": "us-east-1"}]
  },
  {"severity": "High", "resources": "not-a-list"},
  {
    "severity": "Low",
    "status_code": "FAIL",
    "metadata": {"event_code": "s3_bucket_versioning"},
    "resources": [{"uid": "arn:aws:s3:::landing-page", "name": "landing-page", "type": "AwsS3Bucket", "region": "us-east-1"}]
  }
]`

const testTags = `{"landing-page": ["data_classification: Public"]}`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func baseOptions(dir string) quantifyOptions {
	return quantifyOptions{
		findings:  filepath.Join(dir, "findings.json"),
		tags:      filepath.Join(dir, "tags.json"),
		out:       filepath.Join(dir, "out", "report.json"),
		variant:   engine.VariantDeterministic,
		trials:    500,
		seed:      1,
		aggregate: "mean",
		workers:   2,
		sortBy:    "input",
		top:       3,
	}
}

func silenceOutput(t *testing.T) {
	t.Helper()
	prev := logger.SetOutput(&discard{})
	t.Cleanup(func() { logger.SetOutput(prev) })

	stdout := os.Stdout
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = devnull
	t.Cleanup(func() {
		os.Stdout = stdout
		devnull.Close()
	})
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestRunQuantifyWritesOutputs(t *testing.T) {
	silenceOutput(t)
	dir := t.TempDir()
	writeFile(t, dir, "findings.json", testFindings)
	writeFile(t, dir, "tags.json", testTags)

	o := baseOptions(dir)
	o.sortBy = "ale"
	o.csv = filepath.Join(dir, "report.csv")
	o.snapshot = filepath.Join(dir, "baseline.json")

	if err := runQuantify(context.Background(), o); err != nil {
		t.Fatal(err)
	}

	records, err := report.LoadRecords(o.out)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ALE < records[1].ALE {
		t.Errorf("expected records sorted by ALE, got %v then %v", records[0].ALE, records[1].ALE)
	}
	if records[0].AssetUID != "arn:aws:s3:::customer-records" || records[0].ALE != 300000.00 {
		t.Errorf("unexpected top record %+v", records[0])
	}

	data, err := os.ReadFile(report.SummaryPath(o.out))
	if err != nil {
		t.Fatal(err)
	}
	var summary engine.RiskSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.TotalFindings != 2 || summary.Skipped != 1 || summary.Variant != engine.VariantDeterministic {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.Sources.FindingsRead != 3 || summary.Sources.TagEntriesLoaded != 1 {
		t.Errorf("unexpected sources %+v", summary.Sources)
	}
	if summary.RunID == "" {
		t.Error("expected a run id")
	}

	if _, err := os.Stat(o.csv); err != nil {
		t.Errorf("expected CSV export: %v", err)
	}
	snap, err := snapshot.Load(o.snapshot)
	if err != nil {
		t.Fatal(err)
	}
	if snap.RunID != summary.RunID || len(snap.Records) != 2 {
		t.Errorf("unexpected snapshot run=%s records=%d", snap.RunID, len(snap.Records))
	}
}

func TestRunQuantifyMissingInputs(t *testing.T) {
	silenceOutput(t)
	dir := t.TempDir()
	o := baseOptions(dir)

	if err := runQuantify(context.Background(), o); err != nil {
		t.Fatalf("missing inputs should not be fatal: %v", err)
	}
	records, err := report.LoadRecords(o.out)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestRunQuantifyRejectsBadOptions(t *testing.T) {
	silenceOutput(t)
	dir := t.TempDir()

	cases := map[string]func(*quantifyOptions){
		"sort":      func(o *quantifyOptions) { o.sortBy = "severity" },
		"variant":   func(o *quantifyOptions) { o.variant = "bayesian" },
		"aggregate": func(o *quantifyOptions) { o.aggregate = "p0" },
		"model":     func(o *quantifyOptions) { o.riskModel = filepath.Join(dir, "missing.yaml") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			o := baseOptions(dir)
			mutate(&o)
			if err := runQuantify(context.Background(), o); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
