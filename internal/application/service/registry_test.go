package service

import (
	"context"
	"testing"

	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	name   entity.ToolName
	params map[string]interface{}
}

func (t *stubTool) Name() entity.ToolName { return t.name }
func (t *stubTool) Description() string   { return "stub " + string(t.name) }
func (t *stubTool) Parameters() map[string]interface{} {
	if t.params != nil {
		return t.params
	}
	return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
}
func (t *stubTool) Execute(ctx context.Context, cred entity.Credential, args string) (string, error) {
	return "ok", nil
}

func addressSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"to":    map[string]interface{}{"type": "string"},
			"nonce": map[string]interface{}{"type": "number"},
		},
		"required": []string{"to"},
	}
}

func TestRegister_DuplicateNameFails(t *testing.T) {
	r := NewToolRegistry()
	require.NoError(t, r.Register(&stubTool{name: "a"}))

	err := r.Register(&stubTool{name: "a"})

	assert.ErrorIs(t, err, ErrDuplicateTool)
}

func TestRegister_EmptyNameFails(t *testing.T) {
	r := NewToolRegistry()

	assert.ErrorIs(t, r.Register(&stubTool{}), ErrEmptyToolName)
}

func TestRegister_InvalidSchemaFails(t *testing.T) {
	r := NewToolRegistry()

	err := r.Register(&stubTool{name: "bad", params: map[string]interface{}{"type": 12}})

	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestMustRegister_PanicsOnDuplicate(t *testing.T) {
	r := NewToolRegistry()

	assert.Panics(t, func() {
		r.MustRegister(&stubTool{name: "x"}, &stubTool{name: "x"})
	})
}

func TestDefinitions_SortedByName(t *testing.T) {
	r := NewToolRegistry()
	r.MustRegister(&stubTool{name: "c"}, &stubTool{name: "a"}, &stubTool{name: "b"})

	defs := r.Definitions()

	require.Len(t, defs, 3)
	assert.Equal(t, entity.ToolName("a"), defs[0].Name)
	assert.Equal(t, entity.ToolName("b"), defs[1].Name)
	assert.Equal(t, entity.ToolName("c"), defs[2].Name)
	assert.Equal(t, "stub a", defs[0].Description)
	assert.Equal(t, defs, r.Definitions())
}

func TestAll_SortedByName(t *testing.T) {
	r := NewToolRegistry()
	r.MustRegister(&stubTool{name: "z"}, &stubTool{name: "m"})

	all := r.All()

	require.Len(t, all, 2)
	assert.Equal(t, entity.ToolName("m"), all[0].Name())
}

func TestValidate_Cases(t *testing.T) {
	r := NewToolRegistry()
	r.MustRegister(&stubTool{name: "send", params: addressSchema()}, &stubTool{name: "noargs"})

	tests := []struct {
		name    string
		tool    entity.ToolName
		args    string
		wantErr error
	}{
		{name: "valid", tool: "send", args: `{"to":"0xabc","nonce":3}`},
		{name: "missing required", tool: "send", args: `{"nonce":3}`, wantErr: ErrInvalidArguments},
		{name: "wrong type", tool: "send", args: `{"to":5}`, wantErr: ErrInvalidArguments},
		{name: "not json", tool: "send", args: `to=0xabc`, wantErr: ErrInvalidArguments},
		{name: "empty args for optional schema", tool: "noargs", args: ""},
		{name: "unknown tool", tool: "nope", args: `{}`, wantErr: ErrUnknownTool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Validate(tt.tool, tt.args)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
