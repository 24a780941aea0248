package model

// ChunkKind tags the variant held by a StreamChunk.
type ChunkKind int

const (
	ChunkEmpty ChunkKind = iota
	ChunkText
	ChunkCall
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkText:
		return "text"
	case ChunkCall:
		return "call"
	default:
		return "empty"
	}
}

// StreamChunk is one pushed fragment of a model reply. Exactly one of Text
// or Call is meaningful, selected by Kind.
type StreamChunk struct {
	Kind ChunkKind
	Text string
	// Call holds partial structured-call fields keyed by name ("name",
	// "arguments"). Values are fragments to be appended in arrival order.
	Call map[string]string
}

// TextChunk builds a text fragment. An empty string yields an empty chunk.
func TextChunk(text string) StreamChunk {
	if text == "" {
		return EmptyChunk()
	}
	return StreamChunk{Kind: ChunkText, Text: text}
}

// CallChunk builds a partial structured-call fragment. A map without
// non-empty values yields an empty chunk.
func CallChunk(fields map[string]string) StreamChunk {
	call := make(map[string]string, len(fields))
	for k, v := range fields {
		if v != "" {
			call[k] = v
		}
	}
	if len(call) == 0 {
		return EmptyChunk()
	}
	return StreamChunk{Kind: ChunkCall, Call: call}
}

// EmptyChunk is a keep-alive or finish marker carrying nothing.
func EmptyChunk() StreamChunk {
	return StreamChunk{Kind: ChunkEmpty}
}
