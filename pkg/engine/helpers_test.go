package engine

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/tags"
)

type findingSpec struct {
	severity   string
	status     string
	check      string
	uid        string
	name       string
	rtype      string
	state      string
	categories []string
	compliance string
}

func rawFinding(t *testing.T, s findingSpec) json.RawMessage {
	t.Helper()

	resource := map[string]interface{}{
		"uid":    s.uid,
		"name":   s.name,
		"type":   s.rtype,
		"region": "us-east-1",
	}
	if s.state != "" {
		resource["data"] = map[string]interface{}{
			"metadata": map[string]interface{}{"state": s.state},
		}
	}

	unmapped := map[string]interface{}{}
	if s.categories != nil {
		unmapped["categories"] = s.categories
	}
	if s.compliance != "" {
		unmapped["compliance"] = json.RawMessage(s.compliance)
	}

	status := s.status
	if status == "" {
		status = "FAIL"
	}

	f := map[string]interface{}{
		"severity":     s.severity,
		"status_code":  status,
		"metadata":     map[string]interface{}{"event_code": s.check},
		"resources":    []interface{}{resource},
		"unmapped":     unmapped,
		"risk_details": "details",
		"remediation":  map[string]interface{}{"desc": "fix it"},
		"cloud": map[string]interface{}{
			"provider": "aws",
			"account":  map[string]interface{}{"uid": "123456789012"},
		},
		"finding_info": map[string]interface{}{"created_time_dt": "2025-01-01T00:00:00Z"},
	}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("failed to build finding: %v", err)
	}
	return data
}

func newTestScorer(t *testing.T, inventory map[string][]string) *Scorer {
	t.Helper()
	return NewScorer(DefaultRiskModel(), tags.Normalize(inventory), nil)
}

func almostEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func newTestRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
