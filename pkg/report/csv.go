package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/engine"
)

var csvHeader = []string{
	"Asset", "Asset UID", "Asset Type", "Service", "Severity", "Classification",
	"Public", "Active", "Retention Days", "Soft Delete",
	"Threat Frequency", "Loss Magnitude", "Control Effectiveness", "ALE",
	"Control", "Compliance", "Finding Code", "Region", "Cloud Provider", "Account ID",
	"Status", "Created Time",
}

// WriteCSV writes one row per record. The file starts with a UTF-8 BOM so
// spreadsheet tools pick the right encoding.
func WriteCSV(path string, records []engine.RiskRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	if err := encodeCSV(f, records); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	return nil
}

func encodeCSV(wc io.WriteCloser, records []engine.RiskRecord) error {
	if _, err := wc.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		wc.Close()
		return err
	}

	w := csv.NewWriter(wc)
	_ = w.Write(csvHeader)
	for _, r := range records {
		_ = w.Write([]string{
			r.Asset, r.AssetUID, r.AssetType, r.Service, r.Severity, r.Classification,
			strconv.FormatBool(r.IsPublic), strconv.FormatBool(r.IsActive),
			strconv.Itoa(r.RetentionDays), strconv.FormatBool(r.SoftDelete),
			formatFloat(r.ThreatFrequency), formatFloat(r.LossMagnitude),
			formatFloat(r.ControlEffectiveness), strconv.FormatFloat(r.ALE, 'f', 2, 64),
			r.Control, r.Compliance, r.FindingCode, r.Region, r.CloudProvider, r.AccountID,
			r.Status, r.CreatedTime,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
