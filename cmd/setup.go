package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/adk"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/config"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/engine"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Run: func(cmd *cobra.Command, args []string) {
		in := bufio.NewScanner(os.Stdin)
		ask := func(prompt string) string {
			fmt.Print(prompt)
			in.Scan()
			return strings.TrimSpace(in.Text())
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			return
		}

		fmt.Println("grc-engine setup")
		fmt.Println("----------------")

		fmt.Println("Step 1: Default ALE model")
		fmt.Println("1. deterministic (LM x TF x (1 - CE))")
		fmt.Println("2. simulated (Monte-Carlo over triangular ranges)")
		switch strings.ToLower(ask("Enter number or name [" + cfg.Engine.Variant + "] > ")) {
		case "":
		case "1", engine.VariantDeterministic:
			cfg.Engine.Variant = engine.VariantDeterministic
		case "2", engine.VariantSimulated:
			cfg.Engine.Variant = engine.VariantSimulated
			if a := ask("Aggregate, mean or pNN [" + cfg.Engine.Aggregate + "] > "); a != "" {
				if _, err := engine.ParseAggregate(a); err != nil {
					fmt.Printf("%v; keeping %s\n", err, cfg.Engine.Aggregate)
				} else {
					cfg.Engine.Aggregate = a
				}
			}
		default:
			fmt.Println("Invalid choice. Aborting.")
			return
		}

		fmt.Println("\nStep 2: Gemini API key for remediation advice (blank to skip)")
		apiKey := ask("> ")
		if apiKey != "" {
			provider := "gemini"
			cfg.SelectedProvider = provider
			cfg.SetAPIKey(provider, apiKey)
			cfg.SelectedModel = pickModel(ask, provider, apiKey, cfg.SelectedModel)
		}

		if err := config.SaveConfig(cfg); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			return
		}

		fmt.Println("----------------")
		fmt.Println("Setup Complete!")
		fmt.Printf("Variant:  %s\n", cfg.Engine.Variant)
		fmt.Printf("Provider: %s\n", cfg.SelectedProvider)
		fmt.Printf("Model:    %s\n", cfg.SelectedModel)
		fmt.Println("You can now run 'grc-engine quantify'")
	},
}

// pickModel validates the key by listing models and lets the user choose one.
func pickModel(ask func(string) string, provider, apiKey, current string) string {
	fmt.Println("\nValidating key and fetching available models...")
	ctx := context.Background()
	p, err := adk.NewProvider(ctx, provider, apiKey, "")
	if err != nil {
		fmt.Printf("Error initializing provider: %v\n", err)
		return current
	}
	defer p.Close()

	models, err := p.ListModels(ctx)
	if err != nil || len(models) == 0 {
		fmt.Printf("Warning: could not fetch models: %v\n", err)
		if m := ask("Model name [" + current + "] > "); m != "" {
			return m
		}
		return current
	}

	for i, m := range models {
		fmt.Printf("%d. %s\n", i+1, m)
	}
	idx, err := strconv.Atoi(ask("Select Model (number) > "))
	if err != nil || idx < 1 || idx > len(models) {
		fmt.Println("Invalid selection. Using first available model.")
		return models[0]
	}
	return models[idx-1]
}

func init() {
	configCmd.AddCommand(setupCmd)
}
