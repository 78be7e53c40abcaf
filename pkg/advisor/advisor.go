package advisor

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/adk"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/engine"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/logger"
)

// DefaultPlanPath is where advise writes its output by default.
const DefaultPlanPath = "grc_remediation_plan.json"

//go:embed templates/finding.tmpl
var findingTemplate string

// Advisory is the generated analysis for one record.
type Advisory struct {
	Resource    string  `json:"resource"`
	FindingCode string  `json:"finding_code"`
	Control     string  `json:"control"`
	ALE         float64 `json:"ale"`
	Analysis    string  `json:"analysis"`
}

// Advisor turns failing high-impact records into remediation advice.
type Advisor struct {
	provider   adk.Provider
	tmpl       *template.Template
	severities map[string]bool
	limit      int
}

// New builds an advisor. limit <= 0 means no limit.
func New(provider adk.Provider, limit int) (*Advisor, error) {
	tmpl, err := template.New("finding").Parse(findingTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template finding: %v", err)
	}
	return &Advisor{
		provider:   provider,
		tmpl:       tmpl,
		severities: map[string]bool{"critical": true, "high": true},
		limit:      limit,
	}, nil
}

// Select keeps failing Critical and High records, highest ALE first.
func (a *Advisor) Select(records []engine.RiskRecord) []engine.RiskRecord {
	var out []engine.RiskRecord
	for _, r := range records {
		if !strings.EqualFold(r.Status, "FAIL") {
			continue
		}
		if !a.severities[strings.ToLower(r.Severity)] {
			continue
		}
		out = append(out, r)
	}
	engine.SortByALE(out)
	if a.limit > 0 && len(out) > a.limit {
		out = out[:a.limit]
	}
	return out
}

// Prompt renders the advisory query for one record.
func (a *Advisor) Prompt(r engine.RiskRecord) (string, error) {
	var buf bytes.Buffer
	if err := a.tmpl.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("failed to execute template finding: %v", err)
	}
	return buf.String(), nil
}

// Advise queries the provider for every selected record. A failed query is
// logged and skipped; only cancellation stops the loop early.
func (a *Advisor) Advise(ctx context.Context, records []engine.RiskRecord) ([]Advisory, error) {
	selected := a.Select(records)
	logger.Infof("Selected %d of %d records for advisory analysis", len(selected), len(records))

	out := make([]Advisory, 0, len(selected))
	for i, r := range selected {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		logger.Infof("[%d/%d] Processing: %s on %s", i+1, len(selected), r.FindingCode, r.Asset)

		prompt, err := a.Prompt(r)
		if err != nil {
			logger.Warnf("Skipping %s: %v", r.AssetUID, err)
			continue
		}
		analysis, err := a.provider.Generate(ctx, prompt)
		if err != nil {
			logger.Warnf("Skipping %s: %v", r.AssetUID, err)
			continue
		}

		out = append(out, Advisory{
			Resource:    r.AssetUID,
			FindingCode: r.FindingCode,
			Control:     r.Control,
			ALE:         r.ALE,
			Analysis:    strings.TrimSpace(analysis),
		})
	}
	return out, nil
}

// WritePlan saves advisories as indented JSON.
func WritePlan(path string, plan []Advisory) error {
	if plan == nil {
		plan = []Advisory{}
	}
	data, err := json.MarshalIndent(plan, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write plan %s: %w", path, err)
	}
	return nil
}
