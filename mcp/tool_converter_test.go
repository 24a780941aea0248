package mcp

import (
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
)

func TestWriteFilesTool(t *testing.T) {
	tool := WriteFilesTool()

	if tool.Name != WriteFilesToolName {
		t.Errorf("name = %q, want %q", tool.Name, WriteFilesToolName)
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "files" {
		t.Errorf("required = %v, want [files]", tool.InputSchema.Required)
	}
	files, ok := tool.InputSchema.Properties["files"].(map[string]any)
	if !ok {
		t.Fatal("files property missing")
	}
	if files["type"] != "array" {
		t.Errorf("files type = %v, want array", files["type"])
	}
}

func TestToOllamaTools(t *testing.T) {
	tests := []struct {
		name     string
		input    []mcptypes.Tool
		expected int
		validate func(t *testing.T, result []api.Tool)
	}{
		{
			name:     "empty tools",
			input:    []mcptypes.Tool{},
			expected: 0,
		},
		{
			name:     "write_files",
			input:    []mcptypes.Tool{WriteFilesTool()},
			expected: 1,
			validate: func(t *testing.T, result []api.Tool) {
				if result[0].Type != "function" {
					t.Errorf("expected type 'function', got %q", result[0].Type)
				}
				params := result[0].Function.Parameters
				if params.Type != "object" {
					t.Errorf("expected parameters type 'object', got %q", params.Type)
				}
				files, ok := params.Properties["files"]
				if !ok {
					t.Fatal("files property not converted")
				}
				if len(files.Type) != 1 || files.Type[0] != "array" {
					t.Errorf("files type = %v, want [array]", files.Type)
				}
				if files.Items == nil {
					t.Error("files items dropped")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToOllamaTools(tt.input)
			if len(result) != tt.expected {
				t.Fatalf("expected %d tools, got %d", tt.expected, len(result))
			}
			if tt.validate != nil {
				tt.validate(t, result)
			}
		})
	}
}

func TestOllamaProperty(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		validate func(t *testing.T, result api.ToolProperty)
	}{
		{
			name:  "string type",
			input: map[string]any{"type": "string", "description": "A path"},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.Type) != 1 || result.Type[0] != "string" {
					t.Errorf("expected type [string], got %v", result.Type)
				}
				if result.Description != "A path" {
					t.Errorf("description = %q", result.Description)
				}
			},
		},
		{
			name:  "union type",
			input: map[string]any{"type": []any{"string", "null"}},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.Type) != 2 {
					t.Errorf("expected 2 types, got %d", len(result.Type))
				}
			},
		},
		{
			name: "anyOf",
			input: map[string]any{"anyOf": []any{
				map[string]any{"type": "string"},
				map[string]any{"type": "number"},
			}},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.AnyOf) != 2 {
					t.Errorf("expected 2 anyOf options, got %d", len(result.AnyOf))
				}
			},
		},
		{
			name: "non-map value is round-tripped",
			input: struct {
				Type string `json:"type"`
			}{Type: "boolean"},
			validate: func(t *testing.T, result api.ToolProperty) {
				if len(result.Type) != 1 || result.Type[0] != "boolean" {
					t.Errorf("expected type [boolean], got %v", result.Type)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, ollamaProperty(tt.input))
		})
	}
}

func TestToOpenAITools(t *testing.T) {
	if ToOpenAITools(nil) != nil {
		t.Error("expected nil for no tools")
	}

	result := ToOpenAITools([]mcptypes.Tool{WriteFilesTool()})
	if len(result) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(result))
	}
	fn := result[0].OfFunction
	if fn == nil {
		t.Fatal("expected a function tool")
	}
	if fn.Function.Name != WriteFilesToolName {
		t.Errorf("name = %q", fn.Function.Name)
	}
	if _, ok := fn.Function.Parameters["required"]; !ok {
		t.Error("required list dropped")
	}
}

func TestToAnthropicTools(t *testing.T) {
	if ToAnthropicTools(nil) != nil {
		t.Error("expected nil for no tools")
	}

	result := ToAnthropicTools([]mcptypes.Tool{WriteFilesTool()})
	if len(result) != 1 || result[0].OfTool == nil {
		t.Fatal("expected one tool param")
	}
	if result[0].OfTool.Name != WriteFilesToolName {
		t.Errorf("name = %q", result[0].OfTool.Name)
	}
	if len(result[0].OfTool.InputSchema.Required) != 1 {
		t.Errorf("required = %v", result[0].OfTool.InputSchema.Required)
	}
}
