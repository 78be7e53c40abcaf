package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/logger"
)

const (
	DefaultWorkers       = 4
	DefaultProgressEvery = 50
	skipReasonLimit      = 80
)

// Options tunes a batch run.
type Options struct {
	Workers       int
	ProgressEvery int
}

// Skip records a finding that produced no record. Index is 1-based.
type Skip struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Batch is the assembled output of a run, in input order.
type Batch struct {
	Records []RiskRecord
	Skipped []Skip
}

// Assembler collects outcomes into records and diagnostics. It is the only
// place cross-finding state lives and is meant to be fed from one goroutine.
type Assembler struct {
	records []RiskRecord
	skipped []Skip
}

func NewAssembler(capacity int) *Assembler {
	return &Assembler{records: make([]RiskRecord, 0, capacity)}
}

// Add keeps a successful record or logs and remembers the skip.
func (a *Assembler) Add(index int, o Outcome) {
	if o.Err != nil {
		reason := truncate(o.Err.Error(), skipReasonLimit)
		logger.Warnf("Skipping finding %d: %s...", index, reason)
		a.skipped = append(a.skipped, Skip{Index: index, Reason: reason})
		return
	}
	a.records = append(a.records, o.Record)
}

func (a *Assembler) Batch() Batch {
	return Batch{Records: a.records, Skipped: a.skipped}
}

// Run scores findings on a bounded pool of workers. Each worker writes only
// its own result slot; assembly happens afterwards in input order, so the
// output does not depend on scheduling. Only cancellation of ctx fails the run.
func (s *Scorer) Run(ctx context.Context, findings []json.RawMessage, opts Options) (Batch, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	every := opts.ProgressEvery
	if every <= 0 {
		every = DefaultProgressEvery
	}

	outcomes := make([]Outcome, len(findings))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range findings {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = s.Evaluate(findings[i])
			if n := done.Add(1); n%int64(every) == 0 {
				logger.Infof("   -> Processing %d/%d findings...", n, len(findings))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, fmt.Errorf("scoring interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Batch{}, fmt.Errorf("scoring interrupted: %w", err)
	}

	asm := NewAssembler(len(findings))
	for i, o := range outcomes {
		asm.Add(i+1, o)
	}
	return asm.Batch(), nil
}
