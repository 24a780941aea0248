package model

import "testing"

func TestChunkConstructors(t *testing.T) {
	tests := []struct {
		name  string
		chunk StreamChunk
		want  ChunkKind
	}{
		{"text", TextChunk("hi"), ChunkText},
		{"empty text", TextChunk(""), ChunkEmpty},
		{"call", CallChunk(map[string]string{"name": "write_files"}), ChunkCall},
		{"call without values", CallChunk(map[string]string{"name": ""}), ChunkEmpty},
		{"nil call", CallChunk(nil), ChunkEmpty},
		{"empty", EmptyChunk(), ChunkEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.chunk.Kind != tt.want {
				t.Errorf("Kind = %v, want %v", tt.chunk.Kind, tt.want)
			}
		})
	}
}

func TestFormatMessages(t *testing.T) {
	got := FormatMessages([]Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "line one\nline two"},
	})
	want := "SYSTEM be brief\nUSER line one\nUSER line two\n"
	if got != want {
		t.Errorf("FormatMessages() = %q, want %q", got, want)
	}
}
