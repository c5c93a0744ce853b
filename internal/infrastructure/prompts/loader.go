package prompts

import (
	_ "embed"
)

//go:embed assistant.txt
var AssistantPrompt string
