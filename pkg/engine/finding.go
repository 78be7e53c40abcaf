package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrNoResources marks a finding that names no affected resource.
	ErrNoResources = errors.New("finding has no resources")
	// ErrMalformedFinding marks a finding whose fields do not match the expected shape.
	ErrMalformedFinding = errors.New("malformed finding")
)

// Finding is one evaluated control check, in the OCSF shape emitted by the scanner.
type Finding struct {
	Severity    string          `json:"severity"`
	StatusCode  string          `json:"status_code"`
	Metadata    FindingMetadata `json:"metadata"`
	Resources   []Resource      `json:"resources"`
	Unmapped    json.RawMessage `json:"unmapped,omitempty"`
	RiskDetails string          `json:"risk_details"`
	Remediation Remediation     `json:"remediation"`
	Cloud       Cloud           `json:"cloud"`
	FindingInfo FindingInfo     `json:"finding_info"`
}

type FindingMetadata struct {
	EventCode string `json:"event_code"`
}

// Resource is an affected asset. Data.Metadata carries provider state.
type Resource struct {
	UID    string       `json:"uid"`
	Name   string       `json:"name"`
	Type   string       `json:"type"`
	Region string       `json:"region"`
	Data   ResourceData `json:"data"`
}

type ResourceData struct {
	Metadata map[string]interface{} `json:"metadata"`
}

type Remediation struct {
	Desc string `json:"desc"`
}

type Cloud struct {
	Provider string       `json:"provider"`
	Account  CloudAccount `json:"account"`
}

type CloudAccount struct {
	UID string `json:"uid"`
}

type FindingInfo struct {
	Title         string `json:"title"`
	Desc          string `json:"desc"`
	CreatedTimeDt string `json:"created_time_dt"`
}

// CheckID is the stable identifier of the control rule.
func (f *Finding) CheckID() string {
	return f.Metadata.EventCode
}

// State returns the provider-reported lifecycle state of the resource, if any.
func (r *Resource) State() string {
	if r.Data.Metadata == nil {
		return ""
	}
	s, _ := r.Data.Metadata["state"].(string)
	return s
}

// Categories lists the uncategorized labels, e.g. "internet-exposed".
// A missing or non-object unmapped block yields nothing.
func (f *Finding) Categories() []string {
	var unmapped struct {
		Categories []interface{} `json:"categories"`
	}
	if !decodeObject(f.Unmapped, &unmapped) {
		return nil
	}
	var out []string
	for _, c := range unmapped.Categories {
		if s, ok := c.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Compliance returns the framework mapping in source order.
func (f *Finding) Compliance() Compliance {
	var unmapped struct {
		Compliance Compliance `json:"compliance"`
	}
	if !decodeObject(f.Unmapped, &unmapped) {
		return nil
	}
	return unmapped.Compliance
}

func decodeObject(raw json.RawMessage, v interface{}) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Unmarshal(trimmed, v) == nil
}

// DecodeFinding parses one raw finding. A type mismatch fails only this finding.
func DecodeFinding(raw json.RawMessage) (Finding, error) {
	var f Finding
	if err := json.Unmarshal(raw, &f); err != nil {
		return Finding{}, fmt.Errorf("%w: %v", ErrMalformedFinding, err)
	}
	if len(f.Resources) == 0 {
		return Finding{}, ErrNoResources
	}
	if strings.TrimSpace(f.Severity) == "" {
		f.Severity = SeverityHigh
	}
	return f, nil
}

// LoadFindings reads the findings file as a list of undecoded elements.
// On failure it returns an empty list together with the error.
func LoadFindings(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return []json.RawMessage{}, fmt.Errorf("failed to read findings file %q: %w", path, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return []json.RawMessage{}, fmt.Errorf("failed to parse findings file %q: %w", path, err)
	}
	return raw, nil
}
