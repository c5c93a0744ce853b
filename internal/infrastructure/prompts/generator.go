package prompts

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
)

type ToolInfo struct {
	Name        string
	Description string
}

type TokenInfo struct {
	Symbol   string
	Address  string
	Decimals uint8
}

type AssistantPromptData struct {
	Name         string
	Network      string
	ChainID      string
	NativeSymbol string
	Tokens       []TokenInfo
	Tools        []ToolInfo
}

// Network describes the chain the assistant operates on.
type Network struct {
	Name         string
	ChainID      string
	NativeSymbol string
	Tokens       []entity.Token
}

// GenerateAssistantPrompt renders the assistant instructions. Tools are listed
// in registry order, which is sorted by name.
func GenerateAssistantPrompt(baseTemplate, assistantName string, network Network, registry output.ToolRegistry) (string, error) {
	defs := registry.Definitions()
	tools := make([]ToolInfo, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, ToolInfo{Name: def.Name.String(), Description: def.Description})
	}

	tokens := make([]TokenInfo, 0, len(network.Tokens))
	for _, t := range network.Tokens {
		tokens = append(tokens, TokenInfo{Symbol: t.Symbol, Address: t.Address.Hex(), Decimals: t.Decimals})
	}

	data := AssistantPromptData{
		Name:         assistantName,
		Network:      network.Name,
		ChainID:      network.ChainID,
		NativeSymbol: network.NativeSymbol,
		Tokens:       tokens,
		Tools:        tools,
	}

	tmpl, err := template.New("assistant").Option("missingkey=error").Parse(baseTemplate)
	if err != nil {
		return "", fmt.Errorf("parse assistant template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render assistant template: %w", err)
	}

	return buf.String(), nil
}
