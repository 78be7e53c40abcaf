package engine

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// DefaultTrials is the Monte-Carlo sample count when none is configured.
const DefaultTrials = 10_000

// Aggregate selects how simulated trials collapse into one ALE.
// A zero Percentile means the mean.
type Aggregate struct {
	Percentile float64
}

// ParseAggregate accepts "mean" or a percentile such as "p90" or "p97.5".
func ParseAggregate(s string) (Aggregate, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "mean" {
		return Aggregate{}, nil
	}
	if !strings.HasPrefix(s, "p") {
		return Aggregate{}, fmt.Errorf("invalid aggregate %q (want mean or pNN)", s)
	}
	p, err := strconv.ParseFloat(strings.TrimPrefix(s, "p"), 64)
	if err != nil || p <= 0 || p > 100 {
		return Aggregate{}, fmt.Errorf("invalid percentile %q (want p1..p100)", s)
	}
	return Aggregate{Percentile: p}, nil
}

func (a Aggregate) String() string {
	if a.Percentile == 0 {
		return "mean"
	}
	return "p" + strconv.FormatFloat(a.Percentile, 'f', -1, 64)
}

// Simulated draws loss event frequency and loss magnitude from triangular
// distributions. Each finding gets its own generator seeded from the run
// seed and the finding key, so results do not depend on scheduling order.
type Simulated struct {
	model     *RiskModel
	trials    int
	seed      int64
	aggregate Aggregate
}

func NewSimulated(model *RiskModel, trials int, seed int64, aggregate Aggregate) *Simulated {
	if trials <= 0 {
		trials = DefaultTrials
	}
	return &Simulated{model: model, trials: trials, seed: seed, aggregate: aggregate}
}

func (s *Simulated) Name() string { return VariantSimulated }

// Trials is the number of samples drawn per finding.
func (s *Simulated) Trials() int { return s.trials }

// Distributions returns the frequency and magnitude distributions after the
// context multipliers.
func (s *Simulated) Distributions(severity string, ctx ResourceContext) (freq, loss Triangular) {
	mult := s.model.Multipliers
	freq = s.model.FrequencyDistributionFor(severity)
	loss = s.model.LossDistributionFor(ctx.Classification)

	if ctx.IsPublic {
		freq = freq.Scale(mult.PublicFrequency)
	}
	if !ctx.SoftDeleteEnabled {
		loss = loss.Scale(mult.NoSoftDeleteLoss)
	}
	if ctx.RetentionDays < mult.ShortRetentionDays {
		loss = loss.Scale(mult.ShortRetentionLoss)
	}
	return freq, loss
}

func (s *Simulated) Compute(in Inputs) Result {
	freq, loss := s.Distributions(in.Severity, in.Context)
	res := Result{
		ThreatFrequency: freq.Mean(),
		LossMagnitude:   loss.Mean(),
	}
	if !in.Context.IsActive {
		return res
	}

	residual := 1 - in.ControlEffectiveness
	rng := rand.New(rand.NewSource(s.seedFor(in.Key)))
	samples := make([]float64, s.trials)
	for i := range samples {
		lef := sampleTriangular(rng, freq)
		lm := sampleTriangular(rng, loss)
		samples[i] = math.Max(lef*lm*residual, 0)
	}

	res.ALE = s.collapse(samples)
	return res
}

func (s *Simulated) seedFor(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return s.seed ^ int64(h.Sum64())
}

func (s *Simulated) collapse(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	if s.aggregate.Percentile == 0 {
		var sum float64
		for _, v := range samples {
			sum += v
		}
		return sum / float64(len(samples))
	}
	sort.Float64s(samples)
	rank := int(math.Ceil(s.aggregate.Percentile/100*float64(len(samples)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(samples) {
		rank = len(samples) - 1
	}
	return samples[rank]
}

// sampleTriangular draws by inverting the triangular CDF.
func sampleTriangular(rng *rand.Rand, t Triangular) float64 {
	width := t.High - t.Low
	if width <= 0 {
		return t.Low
	}
	u := rng.Float64()
	split := (t.Mode - t.Low) / width
	if u < split {
		return t.Low + math.Sqrt(u*width*(t.Mode-t.Low))
	}
	return t.High - math.Sqrt((1-u)*width*(t.High-t.Mode))
}
