package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/adk"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/advisor"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/config"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/logger"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/report"
)

var (
	adviseRecords string
	adviseOut     string
	adviseLimit   int
	adviseTimeout time.Duration
)

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Generate remediation advice for failing Critical and High records",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		apiKey := cfg.GetAPIKey(cfg.SelectedProvider)
		if apiKey == "" {
			return fmt.Errorf("no API key found for %s; run 'grc-engine config set-key' or set GOOGLE_API_KEY", cfg.SelectedProvider)
		}

		records, err := report.LoadRecords(adviseRecords)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if adviseTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, adviseTimeout)
			defer cancel()
		}

		provider, err := adk.NewProvider(ctx, cfg.SelectedProvider, apiKey, cfg.SelectedModel)
		if err != nil {
			return err
		}
		defer provider.Close()

		adv, err := advisor.New(provider, adviseLimit)
		if err != nil {
			return err
		}

		logger.Infof("Generating remediation advice with %s (%s)...", cfg.SelectedProvider, cfg.SelectedModel)
		plan, err := adv.Advise(ctx, records)
		if err != nil {
			return err
		}
		if err := advisor.WritePlan(adviseOut, plan); err != nil {
			return err
		}
		logger.Infof("Saved %d advisories to %s", len(plan), adviseOut)
		return nil
	},
}

func init() {
	adviseCmd.Flags().StringVarP(&adviseRecords, "records", "r", report.DefaultRecordsPath, "Records file written by quantify")
	adviseCmd.Flags().StringVarP(&adviseOut, "out", "o", advisor.DefaultPlanPath, "Remediation plan output file")
	adviseCmd.Flags().IntVar(&adviseLimit, "limit", 10, "Maximum records to send to the model (0 = all)")
	adviseCmd.Flags().DurationVar(&adviseTimeout, "timeout", 0, "Abort after this long (0 = no limit)")
	rootCmd.AddCommand(adviseCmd)
}
