package model

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codec     tokenizer.Codec
	codecOnce sync.Once
	codecErr  error
)

func getCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})
	return codec, codecErr
}

// CountTokens estimates the token count of text with cl100k_base. Returns 0
// when the codec is unavailable.
func CountTokens(text string) int {
	c, err := getCodec()
	if err != nil {
		return 0
	}
	ids, _, err := c.Encode(text)
	if err != nil {
		return 0
	}
	return len(ids)
}

// CountMessageTokens estimates the token count of a prompt.
func CountMessageTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += CountTokens(m.Content)
	}
	return total
}
