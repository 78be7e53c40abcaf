package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/config"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/engine"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/logger"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/report"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/sink"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/snapshot"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/tags"
)

type quantifyOptions struct {
	findings     string
	tags         string
	out          string
	variant      string
	trials       int
	seed         int64
	aggregate    string
	workers      int
	sortBy       string
	riskModel    string
	csv          string
	snapshot     string
	kafkaBrokers string
	kafkaTopic   string
	timeout      time.Duration
	top          int
}

var qopts quantifyOptions

var quantifyCmd = &cobra.Command{
	Use:   "quantify",
	Short: "Score findings and write the risk records and summary",
	Example: `  grc-engine quantify --findings prowler.json --tags tags.json
  grc-engine quantify --findings prowler.json --tags tags.json --variant simulated --aggregate p90 --sort ale`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Warnf("could not load config, using defaults: %v", err)
			cfg = config.Default()
		}
		applyEngineDefaults(cmd, &qopts, cfg.Engine)
		return runQuantify(cmd.Context(), qopts)
	},
}

// applyEngineDefaults fills flags the user did not set from the config file.
func applyEngineDefaults(cmd *cobra.Command, o *quantifyOptions, e config.EngineConfig) {
	flags := cmd.Flags()
	if !flags.Changed("workers") && e.Workers > 0 {
		o.workers = e.Workers
	}
	if !flags.Changed("trials") && e.Trials > 0 {
		o.trials = e.Trials
	}
	if !flags.Changed("seed") && e.Seed != 0 {
		o.seed = e.Seed
	}
	if !flags.Changed("variant") && e.Variant != "" {
		o.variant = e.Variant
	}
	if !flags.Changed("aggregate") && e.Aggregate != "" {
		o.aggregate = e.Aggregate
	}
	if !flags.Changed("risk-model") && e.RiskModel != "" {
		o.riskModel = e.RiskModel
	}
}

func runQuantify(ctx context.Context, o quantifyOptions) error {
	if o.sortBy != "input" && o.sortBy != "ale" {
		return fmt.Errorf("invalid --sort %q (want input or ale)", o.sortBy)
	}

	model, err := engine.LoadRiskModel(o.riskModel)
	if err != nil {
		return err
	}
	agg, err := engine.ParseAggregate(o.aggregate)
	if err != nil {
		return err
	}
	calc, err := engine.NewCalculator(&model, engine.CalculatorOptions{
		Variant:   o.variant,
		Trials:    o.trials,
		Seed:      o.seed,
		Aggregate: agg,
	})
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger.Infof("Starting risk quantification run %s (%s model)", runID, calc.Name())

	catalog, err := tags.LoadFile(o.tags)
	if err != nil {
		logger.Warnf("%v; continuing without inventory tags", err)
	}
	logger.Infof("Loaded tags for %d resources (%d lookup keys, %d malformed entries skipped)",
		catalog.Resources(), catalog.Keys(), catalog.Skipped())

	findings, err := engine.LoadFindings(o.findings)
	if err != nil {
		logger.Warnf("%v; continuing with no findings", err)
	}
	logger.Infof("Loaded %d findings", len(findings))

	if ctx == nil {
		ctx = context.Background()
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	scorer := engine.NewScorer(model, catalog, calc)
	batch, err := scorer.Run(ctx, findings, engine.Options{Workers: o.workers})
	if err != nil {
		return err
	}

	records := batch.Records
	if o.sortBy == "ale" {
		engine.SortByALE(records)
	}

	summary := engine.Summarize(records, engine.SummaryMeta{
		RunID:       runID,
		GeneratedAt: time.Now(),
		Methodology: model.Methodology,
		Variant:     calc.Name(),
		Skipped:     len(batch.Skipped),
		Sources: engine.Sources{
			FindingsRead:     len(findings),
			TagEntriesLoaded: catalog.Resources(),
		},
	})

	logger.Infof("%d findings processed", summary.TotalFindings)
	report.PrintSummary(os.Stdout, summary)
	report.PrintTopRisks(os.Stdout, records, o.top)

	if err := report.WriteRecords(o.out, records); err != nil {
		return err
	}
	summaryPath := report.SummaryPath(o.out)
	if err := report.WriteSummary(summaryPath, summary); err != nil {
		return err
	}
	logger.Infof("\nMain report saved: %s", o.out)
	logger.Infof("Summary statistics: %s", summaryPath)

	if o.csv != "" {
		if err := report.WriteCSV(o.csv, records); err != nil {
			logger.Errorf("writing CSV: %v", err)
		} else {
			logger.Infof("CSV export: %s", o.csv)
		}
	}

	if o.snapshot != "" {
		if err := snapshot.Save(o.snapshot, runID, records); err != nil {
			logger.Errorf("saving snapshot: %v", err)
		} else {
			logger.Infof("Baseline snapshot: %s", o.snapshot)
		}
	}

	if o.kafkaBrokers != "" || o.kafkaTopic != "" {
		publishRecords(ctx, o, runID, records)
	}
	return nil
}

func publishRecords(ctx context.Context, o quantifyOptions, runID string, records []engine.RiskRecord) {
	pub, err := sink.NewKafkaPublisher(o.kafkaBrokers, o.kafkaTopic, runID)
	if err != nil {
		logger.Warnf("%v; records not published", err)
		return
	}
	defer pub.Close()

	if err := pub.Publish(ctx, records); err != nil {
		logger.Warnf("%v", err)
		return
	}
	logger.Infof("Published %d records to kafka topic %s", len(records), o.kafkaTopic)
}

func init() {
	f := quantifyCmd.Flags()
	f.StringVarP(&qopts.findings, "findings", "f", "", "Findings file (JSON array of OCSF findings)")
	f.StringVarP(&qopts.tags, "tags", "t", "", "Inventory tags file (resource name -> tag strings)")
	f.StringVarP(&qopts.out, "out", "o", report.DefaultRecordsPath, "Records output file; the summary is written next to it")
	f.StringVar(&qopts.variant, "variant", engine.VariantDeterministic, "ALE model: deterministic or simulated")
	f.IntVar(&qopts.trials, "trials", engine.DefaultTrials, "Monte-Carlo trials per finding (simulated)")
	f.Int64Var(&qopts.seed, "seed", 1, "Random seed for the simulated model")
	f.StringVar(&qopts.aggregate, "aggregate", "mean", "Simulated ALE aggregate: mean or a percentile such as p90")
	f.IntVarP(&qopts.workers, "workers", "w", engine.DefaultWorkers, "Parallel scoring workers")
	f.StringVar(&qopts.sortBy, "sort", "input", "Record order: input or ale")
	f.StringVar(&qopts.riskModel, "risk-model", "", "YAML file overriding the built-in risk tables")
	f.StringVar(&qopts.csv, "csv", "", "Also write records as CSV to this path")
	f.StringVar(&qopts.snapshot, "snapshot", "", "Save the records as a baseline snapshot for diff")
	f.StringVar(&qopts.kafkaBrokers, "kafka-brokers", "", "Comma-separated Kafka brokers to publish records to")
	f.StringVar(&qopts.kafkaTopic, "kafka-topic", "", "Kafka topic for published records")
	f.DurationVar(&qopts.timeout, "timeout", 0, "Abort scoring after this long (0 = no limit)")
	f.IntVar(&qopts.top, "top", 10, "Number of highest-ALE records to print")

	rootCmd.AddCommand(quantifyCmd)
}
