package model

// EditInstruction replaces the full content of one file.
type EditInstruction struct {
	// Path is relative to the working-tree root.
	Path    string
	Content string
}

// CommitRecord identifies a commit created for a turn.
type CommitRecord struct {
	Hash    string
	Message string
}

// AssembledResponse is the reply rebuilt from all pushed chunks.
type AssembledResponse struct {
	Text string
	// Call is the concatenated structured-call payload, nil when the reply
	// carried none.
	Call map[string]string
	// Args is Call["arguments"] parsed as JSON. Nil when absent or when
	// parsing failed, in which case ParseErr is set.
	Args     map[string]any
	ParseErr error
}

// HasCall reports whether a structured-call payload was received.
func (r AssembledResponse) HasCall() bool {
	return len(r.Call) > 0
}

// CommitFlags tune how a commit is recorded.
type CommitFlags struct {
	// MachineGenerated marks the commit as produced by the assistant.
	MachineGenerated bool
}
