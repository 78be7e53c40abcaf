package engine

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Severity tiers of a finding.
const (
	SeverityCritical = "Critical"
	SeverityHigh     = "High"
	SeverityMedium   = "Medium"
	SeverityLow      = "Low"
)

// Classification tiers of the data behind a resource.
const (
	ClassHighlySensitive = "Highly Sensitive"
	ClassSensitive       = "Sensitive"
	ClassInternal        = "Internal"
	ClassPublic          = "Public"
)

const defaultMethodology = "FAIR (Factor Analysis of Information Risk)"

// Triangular is a low/mode/high estimate.
type Triangular struct {
	Low  float64 `yaml:"low" json:"low"`
	Mode float64 `yaml:"mode" json:"mode"`
	High float64 `yaml:"high" json:"high"`
}

// Scale multiplies every point of the distribution.
func (t Triangular) Scale(f float64) Triangular {
	return Triangular{Low: t.Low * f, Mode: t.Mode * f, High: t.High * f}
}

// Mean of the distribution.
func (t Triangular) Mean() float64 {
	return (t.Low + t.Mode + t.High) / 3
}

// ServiceRule maps resource identifier keywords to a service bucket and its
// default classification.
type ServiceRule struct {
	Service        string   `yaml:"service"`
	Classification string   `yaml:"classification"`
	Keywords       []string `yaml:"keywords"`
}

// ControlScores are the generic mitigation scores used by the pattern rules.
type ControlScores struct {
	MFA           float64 `yaml:"mfa"`
	Encryption    float64 `yaml:"encryption"`
	SecurityGroup float64 `yaml:"security_group"`
	Backup        float64 `yaml:"backup"`
	Logging       float64 `yaml:"logging"`
	Default       float64 `yaml:"default"`
}

// Multipliers adjust the simulated distributions from resource context.
type Multipliers struct {
	PublicFrequency    float64 `yaml:"public_frequency"`
	NoSoftDeleteLoss   float64 `yaml:"no_soft_delete_loss"`
	ShortRetentionLoss float64 `yaml:"short_retention_loss"`
	ShortRetentionDays int     `yaml:"short_retention_days"`
}

// RiskModel holds every lookup table the scorer consults. Build one with
// DefaultRiskModel or LoadRiskModel and treat it as read-only afterwards.
type RiskModel struct {
	Methodology string `yaml:"methodology"`

	ThreatFrequency        map[string]float64 `yaml:"threat_frequency"`
	DefaultThreatFrequency float64            `yaml:"default_threat_frequency"`
	LossMagnitude          map[string]float64 `yaml:"loss_magnitude"`
	DefaultLossMagnitude   float64            `yaml:"default_loss_magnitude"`

	FrequencyDistributions map[string]Triangular `yaml:"frequency_distributions"`
	LossDistributions      map[string]Triangular `yaml:"loss_distributions"`
	Multipliers            Multipliers           `yaml:"multipliers"`

	ControlScores    ControlScores      `yaml:"control_scores"`
	CheckOverrides   map[string]float64 `yaml:"check_overrides"`
	ExposureKeywords []string           `yaml:"exposure_keywords"`
	SeverityFallback map[string]float64 `yaml:"severity_fallback"`

	Services              []ServiceRule `yaml:"services"`
	DefaultClassification string        `yaml:"default_classification"`
	DefaultRetentionDays  int           `yaml:"default_retention_days"`

	FrameworkPrecedence []string `yaml:"framework_precedence"`
	DefaultControl      string   `yaml:"default_control"`
	MaxFrameworks       int      `yaml:"max_frameworks"`
}

// DefaultRiskModel returns a fresh copy of the built-in model.
func DefaultRiskModel() RiskModel {
	return RiskModel{
		Methodology: defaultMethodology,

		ThreatFrequency: map[string]float64{
			SeverityCritical: 0.30,
			SeverityHigh:     0.15,
			SeverityMedium:   0.05,
			SeverityLow:      0.01,
		},
		DefaultThreatFrequency: 0.15,
		LossMagnitude: map[string]float64{
			ClassHighlySensitive: 1_000_000,
			ClassSensitive:       100_000,
			ClassInternal:        10_000,
			ClassPublic:          1_000,
		},
		DefaultLossMagnitude: 10_000,

		FrequencyDistributions: map[string]Triangular{
			SeverityCritical: {Low: 0.10, Mode: 0.30, High: 0.60},
			SeverityHigh:     {Low: 0.05, Mode: 0.15, High: 0.35},
			SeverityMedium:   {Low: 0.01, Mode: 0.05, High: 0.15},
			SeverityLow:      {Low: 0.001, Mode: 0.01, High: 0.05},
		},
		LossDistributions: map[string]Triangular{
			ClassHighlySensitive: {Low: 250_000, Mode: 1_000_000, High: 5_000_000},
			ClassSensitive:       {Low: 25_000, Mode: 100_000, High: 500_000},
			ClassInternal:        {Low: 2_500, Mode: 10_000, High: 50_000},
			ClassPublic:          {Low: 100, Mode: 1_000, High: 5_000},
		},
		Multipliers: Multipliers{
			PublicFrequency:    2.0,
			NoSoftDeleteLoss:   1.25,
			ShortRetentionLoss: 1.15,
			ShortRetentionDays: 14,
		},

		ControlScores: ControlScores{
			MFA:           0.90,
			Encryption:    0.95,
			SecurityGroup: 0.80,
			Backup:        0.70,
			Logging:       0.60,
			Default:       0.0,
		},
		CheckOverrides: defaultCheckOverrides(),
		ExposureKeywords: []string{"exposed_to_internet", "ingress_from_internet_to_"},
		SeverityFallback: map[string]float64{
			SeverityCritical: 0.0,
			SeverityHigh:     0.10,
			SeverityMedium:   0.30,
			SeverityLow:      0.50,
		},

		Services:              defaultServiceRules(),
		DefaultClassification: ClassInternal,
		DefaultRetentionDays:  30,

		FrameworkPrecedence: []string{
			"NIST-CSF-2.0",
			"NIST-800-53-Revision-5",
			"NIST-800-53-Revision-4",
			"NIST-CSF-1.1",
		},
		DefaultControl: "SC-7",
		MaxFrameworks:  5,
	}
}

func defaultServiceRules() []ServiceRule {
	return []ServiceRule{
		{Service: "IAM", Classification: ClassSensitive, Keywords: []string{"iam", "role", "user", "group", "admin"}},
		{Service: "Storage", Classification: ClassHighlySensitive, Keywords: []string{"s3", "storage", "bucket", "vault", "kms"}},
		{Service: "Database", Classification: ClassHighlySensitive, Keywords: []string{"rds", "sql", "db", "postgresql", "mysql", "oracle", "mongodb"}},
		{Service: "DataMovement", Classification: ClassSensitive, Keywords: []string{"datasync", "data_factory", "migration", "transfer"}},
		{Service: "Monitoring", Classification: ClassInternal, Keywords: []string{"cloudwatch", "monitor", "logs", "workspace", "splunk"}},
		{Service: "Compute", Classification: ClassInternal, Keywords: []string{"ec2", "instance", "vm", "compute", "eks", "ecs"}},
		{Service: "APIGateway", Classification: ClassSensitive, Keywords: []string{"apigateway", "api_gateway"}},
		{Service: "Lambda", Classification: ClassInternal, Keywords: []string{"lambda", "function"}},
		{Service: "Analytics", Classification: ClassInternal, Keywords: []string{"firehose", "kinesis", "analytics"}},
		{Service: "ETL", Classification: ClassSensitive, Keywords: []string{"glue", "etl", "catalog"}},
		{Service: "EventBus", Classification: ClassInternal, Keywords: []string{"events", "eventbridge", "sns", "sqs", "notification"}},
		{Service: "CI/CD", Classification: ClassInternal, Keywords: []string{"codebuild", "build", "pipeline", "codepipeline", "deploy"}},
		{Service: "Networking", Classification: ClassSensitive, Keywords: []string{"security_group", "sg-", "vpc", "subnet", "network"}},
		{Service: "Identity", Classification: ClassSensitive, Keywords: []string{"service_principal", "identity", "directory", "sso"}},
	}
}

// Checks that represent no effective control at all, plus the one hardware MFA check.
func defaultCheckOverrides() map[string]float64 {
	overrides := map[string]float64{
		"iam_root_hardware_mfa_enabled": 0.90,
	}
	noControl := []string{
		"iam_administrator_access_with_mfa",
		"iam_aws_attached_policy_no_administrative_privileges",
		"iam_group_administrator_access_policy",
		"iam_inline_policy_allows_privilege_escalation",
		"iam_policy_allows_privilege_escalation",
		"iam_role_administratoraccess_policy",
		"iam_role_cross_service_confused_deputy_prevention",
		"iam_no_root_access_key",
		"iam_avoid_root_usage",
		"ec2_securitygroup_allow_ingress_from_internet_to_all_ports",
		"ec2_securitygroup_allow_ingress_from_internet_to_any_port",
		"ec2_securitygroup_default_restrict_traffic",
	}
	for _, port := range []string{
		"cassandra", "cifs", "elasticsearch_kibana", "ftp", "kafka", "kerberos", "ldap",
		"memcached", "mongodb", "mysql", "oracle", "postgresql", "rdp", "redis",
		"sqlserver", "ssh", "telnet",
	} {
		noControl = append(noControl, "ec2_instance_port_"+port+"_exposed_to_internet")
	}
	for _, id := range noControl {
		overrides[id] = 0.0
	}
	return overrides
}

// LoadRiskModel reads a YAML file over the built-in model. Map tables are
// merged key by key; lists such as services replace the defaults wholesale.
func LoadRiskModel(path string) (RiskModel, error) {
	m := DefaultRiskModel()
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return RiskModel{}, fmt.Errorf("failed to read risk model %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return RiskModel{}, fmt.Errorf("failed to parse risk model %q: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return RiskModel{}, err
	}
	return m, nil
}

// Validate rejects tables that would push a score outside its domain.
func (m *RiskModel) Validate() error {
	for sev, f := range m.ThreatFrequency {
		if f < 0 {
			return fmt.Errorf("config error: threat frequency for %q is negative (%v)", sev, f)
		}
	}
	if m.DefaultThreatFrequency < 0 || m.DefaultLossMagnitude < 0 {
		return fmt.Errorf("config error: default frequency and magnitude must not be negative")
	}
	for class, lm := range m.LossMagnitude {
		if lm < 0 {
			return fmt.Errorf("config error: loss magnitude for %q is negative (%v)", class, lm)
		}
	}
	for name, tri := range m.FrequencyDistributions {
		if err := validateTriangular("frequency", name, tri); err != nil {
			return err
		}
	}
	for name, tri := range m.LossDistributions {
		if err := validateTriangular("loss", name, tri); err != nil {
			return err
		}
	}

	scores := map[string]float64{
		"control_scores.mfa":            m.ControlScores.MFA,
		"control_scores.encryption":     m.ControlScores.Encryption,
		"control_scores.security_group": m.ControlScores.SecurityGroup,
		"control_scores.backup":         m.ControlScores.Backup,
		"control_scores.logging":        m.ControlScores.Logging,
		"control_scores.default":        m.ControlScores.Default,
	}
	for id, s := range m.CheckOverrides {
		scores["check_overrides."+id] = s
	}
	for sev, s := range m.SeverityFallback {
		scores["severity_fallback."+sev] = s
	}
	for name, s := range scores {
		if s < 0 || s > 1 {
			return fmt.Errorf("config error: %s must be within [0,1], got %v", name, s)
		}
	}

	for i, rule := range m.Services {
		if strings.TrimSpace(rule.Service) == "" {
			return fmt.Errorf("config error: service rule #%d is missing the 'service' field", i+1)
		}
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("config error: service rule %q has no keywords", rule.Service)
		}
	}

	if m.Multipliers.PublicFrequency < 0 || m.Multipliers.NoSoftDeleteLoss < 0 || m.Multipliers.ShortRetentionLoss < 0 {
		return fmt.Errorf("config error: multipliers must not be negative")
	}
	if m.MaxFrameworks < 0 {
		return fmt.Errorf("config error: max_frameworks must not be negative")
	}
	return nil
}

func validateTriangular(kind, name string, t Triangular) error {
	if t.Low < 0 {
		return fmt.Errorf("config error: %s distribution %q has a negative low bound", kind, name)
	}
	if t.Low > t.Mode || t.Mode > t.High {
		return fmt.Errorf("config error: %s distribution %q must satisfy low <= mode <= high", kind, name)
	}
	return nil
}

// CanonicalSeverity maps a severity case-insensitively onto a known tier.
// Empty severities read as High; unknown ones are returned unchanged.
func (m *RiskModel) CanonicalSeverity(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return SeverityHigh
	}
	for _, known := range []string{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow} {
		if strings.EqualFold(known, s) {
			return known
		}
	}
	for _, known := range sortedKeys(m.ThreatFrequency) {
		if strings.EqualFold(known, s) {
			return known
		}
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ThreatFrequencyFor returns the point estimate for a severity.
func (m *RiskModel) ThreatFrequencyFor(severity string) float64 {
	if f, ok := m.ThreatFrequency[severity]; ok {
		return f
	}
	return m.DefaultThreatFrequency
}

// LossMagnitudeFor returns the point estimate for a classification.
func (m *RiskModel) LossMagnitudeFor(class string) float64 {
	if lm, ok := m.LossMagnitude[class]; ok {
		return lm
	}
	return m.DefaultLossMagnitude
}

// FrequencyDistributionFor falls back to the High tier, or a degenerate
// distribution at the default frequency when no High tier is configured.
func (m *RiskModel) FrequencyDistributionFor(severity string) Triangular {
	if t, ok := m.FrequencyDistributions[severity]; ok {
		return t
	}
	if t, ok := m.FrequencyDistributions[SeverityHigh]; ok {
		return t
	}
	f := m.DefaultThreatFrequency
	return Triangular{Low: f, Mode: f, High: f}
}

// LossDistributionFor falls back to the Internal tier, or a degenerate
// distribution at the default magnitude.
func (m *RiskModel) LossDistributionFor(class string) Triangular {
	if t, ok := m.LossDistributions[class]; ok {
		return t
	}
	if t, ok := m.LossDistributions[ClassInternal]; ok {
		return t
	}
	lm := m.DefaultLossMagnitude
	return Triangular{Low: lm, Mode: lm, High: lm}
}
