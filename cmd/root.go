package cmd

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "grc-engine",
	Short: "FAIR risk quantification for cloud security findings",
	Long: `grc-engine turns cloud posture findings and inventory tags into
annualized loss expectancy (ALE) records, an executive summary, and
optional remediation advice generated by an LLM.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetDebug(DebugMode)
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warnf("could not load .env: %v", err)
		}
	},
}

var DebugMode bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
}
