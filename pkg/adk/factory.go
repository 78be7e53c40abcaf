package adk

import (
	"context"
	"fmt"
	"strings"
)

// Providers lists the backends NewProvider can build.
var Providers = []string{"gemini"}

func NewProvider(ctx context.Context, providerName, apiKey, modelName string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured for %s", providerName)
	}
	switch strings.ToLower(providerName) {
	case "gemini":
		return NewGeminiProvider(ctx, apiKey, modelName)
	default:
		return nil, fmt.Errorf("unsupported provider: %s (supported: %s)", providerName, strings.Join(Providers, ", "))
	}
}
