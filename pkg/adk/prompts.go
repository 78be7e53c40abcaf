package adk

import (
	_ "embed"
)

//go:embed prompts/system_prompt.md
var systemPrompt string

// SystemPrompt is the standing instruction sent with every advisory request.
func SystemPrompt() string {
	return systemPrompt
}
