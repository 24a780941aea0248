package model

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one element of an outbound prompt.
type Message struct {
	Role    Role
	Content string
}

// Turn is a message recorded in the session ledger.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Message returns the prompt form of the turn.
func (t Turn) Message() Message {
	return Message{Role: t.Role, Content: t.Content}
}

// Messages converts turns to prompt messages, preserving order.
func Messages(turns []Turn) []Message {
	out := make([]Message, len(turns))
	for i, t := range turns {
		out[i] = t.Message()
	}
	return out
}

// FormatMessages renders a prompt for the exchange log, prefixing every
// content line with the upper-cased role.
func FormatMessages(messages []Message) string {
	var b strings.Builder
	for _, msg := range messages {
		role := strings.ToUpper(string(msg.Role))
		for _, line := range strings.Split(msg.Content, "\n") {
			fmt.Fprintf(&b, "%s %s\n", role, line)
		}
	}
	return b.String()
}
