package testutil

import (
	"strings"

	"typeraider/model"
)

// TestMessages returns a sample prompt for testing.
func TestMessages() []model.Message {
	return []model.Message{
		{Role: model.RoleSystem, Content: "You are a careful programmer."},
		{Role: model.RoleUser, Content: "Hello, how are you?"},
		{Role: model.RoleAssistant, Content: "I'm doing well, thank you!"},
		{Role: model.RoleUser, Content: "Can you help me with a task?"},
	}
}

// SingleUserMessage returns a single user message for simple tests.
func SingleUserMessage(content string) []model.Message {
	return []model.Message{{Role: model.RoleUser, Content: content}}
}

// EditReply renders a whole-file edit block the way a model would write it.
func EditReply(intro, path, content string) string {
	var b strings.Builder
	if intro != "" {
		b.WriteString(intro)
		b.WriteString("\n\n")
	}
	b.WriteString(path)
	b.WriteString("\n```\n")
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n")
	return b.String()
}

// TextChunks splits text into chunks of at most size bytes.
func TextChunks(text string, size int) []model.StreamChunk {
	var chunks []model.StreamChunk
	for len(text) > 0 {
		n := size
		if n > len(text) {
			n = len(text)
		}
		chunks = append(chunks, model.TextChunk(text[:n]))
		text = text[n:]
	}
	return chunks
}
