package engine

import (
	"fmt"
	"math"
)

// Variant names accepted by NewCalculator.
const (
	VariantDeterministic = "deterministic"
	VariantSimulated     = "simulated"
)

// Inputs is everything a calculator needs for one finding.
type Inputs struct {
	Severity             string
	Context              ResourceContext
	ControlEffectiveness float64
	// Key identifies the finding; the simulated variant derives its seed from it.
	Key string
}

// Result is the scored exposure of one finding.
type Result struct {
	ThreatFrequency float64
	LossMagnitude   float64
	ALE             float64
}

// Calculator turns a finding's inputs into an annualized loss expectancy.
type Calculator interface {
	Name() string
	Compute(in Inputs) Result
}

// CalculatorOptions configures NewCalculator.
type CalculatorOptions struct {
	Variant   string
	Trials    int
	Seed      int64
	Aggregate Aggregate
}

// NewCalculator builds the variant named in opts.
func NewCalculator(model *RiskModel, opts CalculatorOptions) (Calculator, error) {
	switch opts.Variant {
	case "", VariantDeterministic:
		return NewDeterministic(model), nil
	case VariantSimulated:
		return NewSimulated(model, opts.Trials, opts.Seed, opts.Aggregate), nil
	default:
		return nil, fmt.Errorf("unknown model variant %q (want %s or %s)", opts.Variant, VariantDeterministic, VariantSimulated)
	}
}

// ALE is the closed-form residual risk. A zero or negative magnitude or
// frequency means no loss.
func ALE(lossMagnitude, threatFrequency, controlEffectiveness float64) float64 {
	if lossMagnitude <= 0 || threatFrequency <= 0 {
		return 0
	}
	exposure := lossMagnitude * threatFrequency
	residual := exposure * (1 - controlEffectiveness)
	return math.Max(residual, 0)
}

// Deterministic looks up point estimates and applies ALE.
type Deterministic struct {
	model *RiskModel
}

func NewDeterministic(model *RiskModel) *Deterministic {
	return &Deterministic{model: model}
}

func (d *Deterministic) Name() string { return VariantDeterministic }

func (d *Deterministic) Compute(in Inputs) Result {
	tf := d.model.ThreatFrequencyFor(in.Severity)
	lm := d.model.LossMagnitudeFor(in.Context.Classification)
	return Result{
		ThreatFrequency: tf,
		LossMagnitude:   lm,
		ALE:             ALE(lm, tf, in.ControlEffectiveness),
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
