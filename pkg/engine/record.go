package engine

import (
	"sort"
	"strings"
	"time"
)

const descriptionLimit = 200

// RiskRecord is one scored finding as written to the records file.
type RiskRecord struct {
	Asset                string  `json:"asset"`
	AssetUID             string  `json:"asset_uid"`
	AssetType            string  `json:"asset_type"`
	Service              string  `json:"service"`
	Severity             string  `json:"severity"`
	Classification       string  `json:"classification"`
	IsPublic             bool    `json:"is_public"`
	IsActive             bool    `json:"is_active"`
	RetentionDays        int     `json:"retention_days"`
	SoftDelete           bool    `json:"soft_delete"`
	ThreatFrequency      float64 `json:"threat_frequency"`
	LossMagnitude        float64 `json:"loss_magnitude"`
	ControlEffectiveness float64 `json:"control_effectiveness"`
	ALE                  float64 `json:"ale"`
	Control              string  `json:"control"`
	Compliance           string  `json:"compliance"`
	FindingCode          string  `json:"finding_code"`
	RiskDetails          string  `json:"risk_details"`
	Remediation          string  `json:"remediation"`
	Region               string  `json:"region"`
	CloudProvider        string  `json:"cloud_provider"`
	AccountID            string  `json:"account_id"`
	Status               string  `json:"status"`
	CreatedTime          string  `json:"created_time"`
	Title                string  `json:"title,omitempty"`
	Description          string  `json:"description,omitempty"`
}

// Sources counts what the run read from its inputs.
type Sources struct {
	FindingsRead     int `json:"findings_read"`
	TagEntriesLoaded int `json:"tag_entries_loaded"`
}

// RiskSummary aggregates a record set.
type RiskSummary struct {
	RunID         string             `json:"run_id,omitempty"`
	TotalFindings int                `json:"total_findings"`
	TotalALE      float64            `json:"total_ale"`
	AvgALE        float64            `json:"avg_ale"`
	CriticalCount int                `json:"critical_count"`
	HighCount     int                `json:"high_count"`
	MediumCount   int                `json:"medium_count"`
	LowCount      int                `json:"low_count"`
	ALEByService  map[string]float64 `json:"ale_by_service"`
	Skipped       int                `json:"skipped"`
	GeneratedAt   string             `json:"generated_at"`
	Methodology   string             `json:"methodology"`
	Variant       string             `json:"variant"`
	Sources       Sources            `json:"sources"`
}

// SummaryMeta is the run information that does not come from the records.
type SummaryMeta struct {
	RunID       string
	GeneratedAt time.Time
	Methodology string
	Variant     string
	Skipped     int
	Sources     Sources
}

// Summarize is a pure aggregation over records; the same records and meta
// always give the same summary.
func Summarize(records []RiskRecord, meta SummaryMeta) RiskSummary {
	methodology := meta.Methodology
	if methodology == "" {
		methodology = defaultMethodology
	}
	s := RiskSummary{
		RunID:         meta.RunID,
		TotalFindings: len(records),
		ALEByService:  map[string]float64{},
		Skipped:       meta.Skipped,
		GeneratedAt:   meta.GeneratedAt.Format(time.RFC3339),
		Methodology:   methodology,
		Variant:       meta.Variant,
		Sources:       meta.Sources,
	}

	var total float64
	for _, r := range records {
		total += r.ALE
		s.ALEByService[r.Service] += r.ALE
		switch strings.ToLower(r.Severity) {
		case "critical":
			s.CriticalCount++
		case "high":
			s.HighCount++
		case "medium":
			s.MediumCount++
		case "low":
			s.LowCount++
		}
	}
	for svc, v := range s.ALEByService {
		s.ALEByService[svc] = round(v, 2)
	}

	s.TotalALE = round(total, 2)
	if len(records) > 0 {
		s.AvgALE = round(total/float64(len(records)), 2)
	}
	return s
}

// SortByALE orders records by descending ALE, keeping input order for ties.
func SortByALE(records []RiskRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ALE > records[j].ALE
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
