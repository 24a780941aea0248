// Package mcp holds the function definitions offered to the model in the
// function edit format and converts them into each provider's tool shape.
package mcp

import mcptypes "github.com/mark3labs/mcp-go/mcp"

// WriteFilesToolName is the function the model calls to return edits.
const WriteFilesToolName = "write_files"

// WriteFilesTool describes a call carrying whole-file replacements.
func WriteFilesTool() mcptypes.Tool {
	return mcptypes.Tool{
		Name:        WriteFilesToolName,
		Description: "Write the complete new content of one or more files. Each entry replaces the whole file.",
		InputSchema: mcptypes.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"explanation": map[string]any{
					"type":        "string",
					"description": "Short description of the change",
				},
				"files": map[string]any{
					"type":        "array",
					"description": "Files to write",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"path": map[string]any{
								"type":        "string",
								"description": "File path relative to the repository root",
							},
							"content": map[string]any{
								"type":        "string",
								"description": "Complete new file content",
							},
						},
						"required": []string{"path", "content"},
					},
				},
			},
			Required: []string{"files"},
		},
	}
}
