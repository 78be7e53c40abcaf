package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/adk"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/config"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/engine"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration (provider, model, keys, engine defaults)",
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Store an API key for a provider",
	Run: func(cmd *cobra.Command, args []string) {
		provider, _ := cmd.Flags().GetString("provider")
		key, _ := cmd.Flags().GetString("key")

		if key == "" {
			fmt.Println("Error: --key is required")
			return
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			return
		}

		cfg.SetAPIKey(strings.ToLower(provider), key)
		if err := config.SaveConfig(cfg); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			return
		}
		fmt.Printf("API key saved for provider: %s\n", provider)
	},
}

var setModelCmd = &cobra.Command{
	Use:   "set-model",
	Short: "Set the active provider and model used by advise",
	Run: func(cmd *cobra.Command, args []string) {
		provider, _ := cmd.Flags().GetString("provider")
		model, _ := cmd.Flags().GetString("model")

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			return
		}

		if provider != "" {
			cfg.SelectedProvider = strings.ToLower(provider)
		}
		if model != "" {
			cfg.SelectedModel = model
		}

		if err := config.SaveConfig(cfg); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			return
		}
		fmt.Printf("Active configuration updated: Provider=%s, Model=%s\n", cfg.SelectedProvider, cfg.SelectedModel)
	},
}

var setEngineCmd = &cobra.Command{
	Use:     "set-engine",
	Short:   "Set default quantify options",
	Example: `  grc-engine config set-engine --variant simulated --trials 20000 --aggregate p95`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}

		flags := cmd.Flags()
		if flags.Changed("workers") {
			cfg.Engine.Workers, _ = flags.GetInt("workers")
		}
		if flags.Changed("trials") {
			cfg.Engine.Trials, _ = flags.GetInt("trials")
		}
		if flags.Changed("seed") {
			cfg.Engine.Seed, _ = flags.GetInt64("seed")
		}
		if flags.Changed("variant") {
			v, _ := flags.GetString("variant")
			if v != engine.VariantDeterministic && v != engine.VariantSimulated {
				return fmt.Errorf("unknown variant %q", v)
			}
			cfg.Engine.Variant = v
		}
		if flags.Changed("aggregate") {
			a, _ := flags.GetString("aggregate")
			if _, err := engine.ParseAggregate(a); err != nil {
				return err
			}
			cfg.Engine.Aggregate = a
		}
		if flags.Changed("risk-model") {
			p, _ := flags.GetString("risk-model")
			if p != "" {
				if _, err := engine.LoadRiskModel(p); err != nil {
					return err
				}
			}
			cfg.Engine.RiskModel = p
		}

		if err := config.SaveConfig(cfg); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
		fmt.Println("Engine defaults updated.")
		return nil
	},
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			return
		}
		path, _ := config.GetConfigPath()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Config file:\t%s\n", path)
		fmt.Fprintf(w, "Provider:\t%s\n", cfg.SelectedProvider)
		fmt.Fprintf(w, "Model:\t%s\n", cfg.SelectedModel)

		names := make([]string, 0, len(cfg.Providers))
		for name := range cfg.Providers {
			names = append(names, name)
		}
		if _, ok := cfg.Providers[cfg.SelectedProvider]; !ok {
			names = append(names, cfg.SelectedProvider)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "API key (%s):\t%s\n", name, config.Masked(cfg.GetAPIKey(name)))
		}

		riskModel := cfg.Engine.RiskModel
		if riskModel == "" {
			riskModel = "(built-in)"
		}
		fmt.Fprintf(w, "Variant:\t%s\n", cfg.Engine.Variant)
		fmt.Fprintf(w, "Aggregate:\t%s\n", cfg.Engine.Aggregate)
		fmt.Fprintf(w, "Trials:\t%d\n", cfg.Engine.Trials)
		fmt.Fprintf(w, "Seed:\t%d\n", cfg.Engine.Seed)
		fmt.Fprintf(w, "Workers:\t%d\n", cfg.Engine.Workers)
		fmt.Fprintf(w, "Risk model:\t%s\n", riskModel)
		w.Flush()
	},
}

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List available models from the configured provider",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Println("Error loading config:", err)
			return
		}

		provider := cfg.SelectedProvider
		apiKey := cfg.GetAPIKey(provider)
		if apiKey == "" {
			fmt.Printf("No API key found for %s.\n", provider)
			return
		}

		fmt.Printf("Fetching models for %s...\n", provider)
		ctx := context.Background()
		p, err := adk.NewProvider(ctx, provider, apiKey, "")
		if err != nil {
			fmt.Println("Error initializing provider:", err)
			return
		}
		defer p.Close()

		models, err := p.ListModels(ctx)
		if err != nil {
			fmt.Println("Error fetching models:", err)
			return
		}

		fmt.Printf("\nAvailable Models (%s):\n", provider)
		for _, m := range models {
			mark := " "
			if m == cfg.SelectedModel {
				mark = "*"
			}
			fmt.Printf("%s %s\n", mark, m)
		}
	},
}

func init() {
	providers := strings.Join(adk.Providers, ", ")
	setKeyCmd.Flags().StringP("provider", "p", "gemini", "Provider ("+providers+")")
	setKeyCmd.Flags().StringP("key", "k", "", "API Key")

	setModelCmd.Flags().StringP("provider", "p", "", "Provider ("+providers+")")
	setModelCmd.Flags().StringP("model", "m", "", "Model name")

	setEngineCmd.Flags().Int("workers", engine.DefaultWorkers, "Parallel scoring workers")
	setEngineCmd.Flags().Int("trials", engine.DefaultTrials, "Monte-Carlo trials per finding")
	setEngineCmd.Flags().Int64("seed", 1, "Random seed for the simulated model")
	setEngineCmd.Flags().String("variant", engine.VariantDeterministic, "ALE model: deterministic or simulated")
	setEngineCmd.Flags().String("aggregate", "mean", "Simulated ALE aggregate: mean or pNN")
	setEngineCmd.Flags().String("risk-model", "", "YAML risk model file (empty = built-in)")

	configCmd.AddCommand(setKeyCmd)
	configCmd.AddCommand(setModelCmd)
	configCmd.AddCommand(setEngineCmd)
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(listModelsCmd)
	rootCmd.AddCommand(configCmd)
}
