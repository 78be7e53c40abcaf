package engine

import (
	"encoding/json"
	"fmt"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/tags"
)

// Scorer turns one raw finding into a RiskRecord. It holds no per-run state,
// so a single Scorer is safe to share across goroutines.
type Scorer struct {
	model     *RiskModel
	resolver  *Resolver
	estimator *Estimator
	calc      Calculator
}

// NewScorer copies the model so later changes by the caller cannot leak
// into a run. A nil calculator means the deterministic variant.
func NewScorer(model RiskModel, catalog *tags.Catalog, calc Calculator) *Scorer {
	m := &model
	if calc == nil {
		calc = NewDeterministic(m)
	}
	return &Scorer{
		model:     m,
		resolver:  NewResolver(m, catalog),
		estimator: NewEstimator(m),
		calc:      calc,
	}
}

// Model returns the risk model the scorer was built with.
func (s *Scorer) Model() *RiskModel { return s.model }

// Calculator returns the ALE variant in use.
func (s *Scorer) Calculator() Calculator { return s.calc }

// Score decodes and scores a single finding.
func (s *Scorer) Score(raw json.RawMessage) (RiskRecord, error) {
	f, err := DecodeFinding(raw)
	if err != nil {
		return RiskRecord{}, err
	}

	f.Severity = s.model.CanonicalSeverity(f.Severity)

	res := f.Resources[0]
	ctx := s.resolver.Resolve(&f, res)
	ce := s.estimator.Effectiveness(f.CheckID(), f.StatusCode, f.Severity)

	result := s.calc.Compute(Inputs{
		Severity:             f.Severity,
		Context:              ctx,
		ControlEffectiveness: ce,
		Key:                  res.UID + "|" + f.CheckID(),
	})

	compliance := f.Compliance()
	return RiskRecord{
		Asset:                ResourceName(res),
		AssetUID:             orDefault(res.UID, "unknown"),
		AssetType:            res.Type,
		Service:              ctx.Service,
		Severity:             f.Severity,
		Classification:       ctx.Classification,
		IsPublic:             ctx.IsPublic,
		IsActive:             ctx.IsActive,
		RetentionDays:        ctx.RetentionDays,
		SoftDelete:           ctx.SoftDeleteEnabled,
		ThreatFrequency:      round(result.ThreatFrequency, 4),
		LossMagnitude:        round(result.LossMagnitude, 2),
		ControlEffectiveness: round(ce, 2),
		ALE:                  round(result.ALE, 2),
		Control:              PrimaryControl(compliance, s.model.FrameworkPrecedence, s.model.DefaultControl),
		Compliance:           FrameworkList(compliance, s.model.MaxFrameworks),
		FindingCode:          f.CheckID(),
		RiskDetails:          truncate(f.RiskDetails, descriptionLimit),
		Remediation:          truncate(f.Remediation.Desc, descriptionLimit),
		Region:               orDefault(res.Region, "unknown"),
		CloudProvider:        orDefault(f.Cloud.Provider, "aws"),
		AccountID:            orDefault(f.Cloud.Account.UID, "unknown"),
		Status:               orDefault(f.StatusCode, "FAIL"),
		CreatedTime:          f.FindingInfo.CreatedTimeDt,
		Title:                f.FindingInfo.Title,
		Description:          truncate(f.FindingInfo.Desc, descriptionLimit),
	}, nil
}

// Outcome is the result of scoring one finding: a record or the reason it
// was skipped.
type Outcome struct {
	Record RiskRecord
	Err    error
}

// Evaluate scores a finding and converts any panic into an error outcome.
func (s *Scorer) Evaluate(raw json.RawMessage) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: fmt.Errorf("panic while scoring: %v", r)}
		}
	}()
	rec, err := s.Score(raw)
	return Outcome{Record: rec, Err: err}
}
