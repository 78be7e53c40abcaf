package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/report"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/snapshot"
)

var (
	diffBaseline string
	diffCurrent  string
	diffLimit    int
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare a records file against a saved baseline snapshot",
	Example: `  grc-engine quantify -f prowler.json -t tags.json --snapshot .grc-snapshot.json
  grc-engine diff --baseline .grc-snapshot.json --current risk_quantification_report.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseline, err := snapshot.Load(diffBaseline)
		if err != nil {
			return err
		}
		current, err := report.LoadRecords(diffCurrent)
		if err != nil {
			return err
		}

		label := diffBaseline
		if baseline.RunID != "" {
			label = baseline.RunID
		}
		d := snapshot.Compare(baseline.Records, current)
		snapshot.Print(os.Stdout, label, d, diffLimit)
		return nil
	},
}

func init() {
	diffCmd.Flags().StringVar(&diffBaseline, "baseline", snapshot.DefaultPath, "Baseline snapshot or records file")
	diffCmd.Flags().StringVar(&diffCurrent, "current", report.DefaultRecordsPath, "Current records file")
	diffCmd.Flags().IntVar(&diffLimit, "limit", 10, "Maximum entries listed per section")
	rootCmd.AddCommand(diffCmd)
}
