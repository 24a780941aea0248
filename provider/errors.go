package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"typeraider/model"
)

// contextLengthMarkers are substrings the APIs use when a prompt does not
// fit the context window.
var contextLengthMarkers = []string{
	"context_length_exceeded",
	"maximum context length",
	"context length",
	"context window",
	"prompt is too long",
	"too many tokens",
	"input is too long",
}

// classifyError maps an SDK failure onto the model error kinds.
func classifyError(ctx context.Context, name string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrCancelled) || errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return model.ErrCancelled
	}

	wrapped := fmt.Errorf("%s: %w", name, err)
	status := statusCode(err)
	text := strings.ToLower(err.Error())

	if status == http.StatusRequestEntityTooLarge || isContextLength(text) {
		return &model.ContextLengthError{Err: wrapped}
	}

	switch {
	case status == http.StatusTooManyRequests,
		status == http.StatusRequestTimeout,
		status == http.StatusConflict,
		status >= http.StatusInternalServerError:
		return &model.TransientError{Err: wrapped}
	case status == 0 && isNetworkError(ctx, err):
		return &model.TransientError{Err: wrapped}
	}
	return wrapped
}

func isContextLength(text string) bool {
	for _, marker := range contextLengthMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// statusCode extracts the HTTP status from any of the SDK error types.
// Returns 0 when the failure happened below HTTP.
func statusCode(err error) int {
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode
	}
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode
	}
	var ollamaErr api.StatusError
	if errors.As(err, &ollamaErr) {
		return ollamaErr.StatusCode
	}
	var ollamaErrPtr *api.StatusError
	if errors.As(err, &ollamaErrPtr) {
		return ollamaErrPtr.StatusCode
	}
	return 0
}

// isNetworkError reports connection-level failures worth retrying. A
// deadline is only transient when it was not the caller's own context that
// expired.
func isNetworkError(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return ctx.Err() == nil
	}
	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
