package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrDuplicateTool    = errors.New("tool already registered")
	ErrEmptyToolName    = errors.New("tool name is empty")
	ErrInvalidSchema    = errors.New("invalid tool parameter schema")
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid arguments")
)

var _ output.ToolRegistry = (*ToolRegistryImpl)(nil)

// ToolRegistryImpl is filled once at startup and only read afterwards.
type ToolRegistryImpl struct {
	tools   map[entity.ToolName]output.ToolPort
	schemas map[entity.ToolName]*jsonschema.Schema
}

func NewToolRegistry() *ToolRegistryImpl {
	return &ToolRegistryImpl{
		tools:   make(map[entity.ToolName]output.ToolPort),
		schemas: make(map[entity.ToolName]*jsonschema.Schema),
	}
}

func (r *ToolRegistryImpl) Register(tool output.ToolPort) error {
	name := tool.Name()
	if name == "" {
		return ErrEmptyToolName
	}
	if _, ok := r.tools[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}

	raw, err := json.Marshal(tool.Parameters())
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSchema, name, err)
	}
	schema, err := jsonschema.CompileString(string(name)+".schema.json", string(raw))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSchema, name, err)
	}

	r.tools[name] = tool
	r.schemas[name] = schema
	return nil
}

// MustRegister panics on configuration errors. Used while wiring the container.
func (r *ToolRegistryImpl) MustRegister(tools ...output.ToolPort) {
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			panic(err)
		}
	}
}

func (r *ToolRegistryImpl) Get(name entity.ToolName) (output.ToolPort, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

func (r *ToolRegistryImpl) All() []output.ToolPort {
	result := make([]output.ToolPort, 0, len(r.tools))
	for _, name := range r.sortedNames() {
		result = append(result, r.tools[name])
	}
	return result
}

func (r *ToolRegistryImpl) Definitions() []entity.ToolDefinition {
	result := make([]entity.ToolDefinition, 0, len(r.tools))
	for _, name := range r.sortedNames() {
		tool := r.tools[name]
		result = append(result, entity.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return result
}

// Validate checks model-produced arguments against the tool schema. An empty
// argument string is treated as an empty object.
func (r *ToolRegistryImpl) Validate(name entity.ToolName, arguments string) error {
	schema, ok := r.schemas[name]
	if !ok {
		return fmt.Errorf("%w '%s'", ErrUnknownTool, name)
	}

	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	var doc interface{}
	if err := json.Unmarshal([]byte(arguments), &doc); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidArguments, name, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidArguments, name, err)
	}
	return nil
}

func (r *ToolRegistryImpl) sortedNames() []entity.ToolName {
	names := make([]entity.ToolName, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
