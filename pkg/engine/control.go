package engine

import "strings"

// Estimator maps a finding's check to the fraction of risk its control removes.
type Estimator struct {
	model *RiskModel
}

func NewEstimator(model *RiskModel) *Estimator {
	return &Estimator{model: model}
}

// Effectiveness resolves a score in [0,1]: exact check overrides first, then
// keyword patterns on the check ID, then a coarse score from severity alone.
// Checks for ports reachable from the internet never count as mitigated.
func (e *Estimator) Effectiveness(checkID, statusCode, severity string) float64 {
	return clamp01(e.lookup(checkID, statusCode, severity))
}

func (e *Estimator) lookup(checkID, statusCode, severity string) float64 {
	m := e.model
	if score, ok := m.CheckOverrides[checkID]; ok {
		return score
	}

	code := strings.ToLower(checkID)
	failing := strings.Contains(strings.ToUpper(statusCode), "FAIL")

	switch {
	case strings.Contains(code, "mfa"):
		if failing {
			return 0
		}
		return m.ControlScores.MFA
	case strings.Contains(code, "encryption") || strings.Contains(code, "kms"):
		if failing {
			return 0
		}
		return m.ControlScores.Encryption
	case containsAny(code, m.ExposureKeywords):
		return 0
	case strings.Contains(code, "securitygroup"):
		if strings.Contains(code, "all_ports") {
			return 0
		}
		return m.ControlScores.SecurityGroup
	case strings.Contains(code, "iam") && strings.Contains(code, "privilege"):
		return 0
	case strings.Contains(code, "backup"):
		return m.ControlScores.Backup
	case strings.Contains(code, "logging") || strings.Contains(code, "trail"):
		return m.ControlScores.Logging
	}

	if score, ok := m.SeverityFallback[m.CanonicalSeverity(severity)]; ok {
		return score
	}
	return m.ControlScores.Default
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
