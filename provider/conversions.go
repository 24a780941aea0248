package provider

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"typeraider/model"
)

// ToOpenAIMessages converts prompt messages to OpenAI chat messages.
// Unknown roles are sent as user messages.
func ToOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// toAnthropicMessages splits prompt messages into Anthropic's separate
// system blocks and the message list. Consecutive messages of the same role
// are merged, since the API rejects them.
func toAnthropicMessages(messages []model.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var system []anthropic.TextBlockParam
	out := make([]anthropic.MessageParam, 0, len(messages))

	var lastRole model.Role
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
			continue
		}

		role := model.RoleUser
		if msg.Role == model.RoleAssistant {
			role = model.RoleAssistant
		}

		block := anthropic.NewTextBlock(msg.Content)
		if len(out) > 0 && role == lastRole {
			out[len(out)-1].Content = append(out[len(out)-1].Content, block)
			continue
		}

		if role == model.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
		lastRole = role
	}
	return out, system
}

// ToOllamaMessages converts prompt messages to Ollama api.Message.
func ToOllamaMessages(messages []model.Message) []api.Message {
	out := make([]api.Message, len(messages))
	for i, msg := range messages {
		out[i] = api.Message{Role: string(msg.Role), Content: msg.Content}
	}
	return out
}

// ollamaCallChunk turns a complete Ollama tool call into a call chunk with
// JSON-encoded arguments.
func ollamaCallChunk(call api.ToolCall) model.StreamChunk {
	args, err := json.Marshal(call.Function.Arguments)
	if err != nil {
		args = nil
	}
	return model.CallChunk(map[string]string{
		"name":      call.Function.Name,
		"arguments": string(args),
	})
}
