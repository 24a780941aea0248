package coder

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"typeraider/model"
	"typeraider/observability"
)

// StreamProcessor rebuilds a reply from pushed chunks. In streaming mode
// text is echoed to the output as it arrives; otherwise the whole reply is
// written when the attempt ends.
type StreamProcessor struct {
	out      Output
	stream   bool
	observer observability.Observer

	text strings.Builder
	call map[string]string
}

// NewStreamProcessor creates a processor writing to out.
func NewStreamProcessor(out Output, stream bool, obs observability.Observer) *StreamProcessor {
	if obs == nil {
		obs = observability.NoOpObserver{}
	}
	return &StreamProcessor{out: out, stream: stream, observer: obs}
}

// Begin discards anything accumulated by a previous attempt.
func (p *StreamProcessor) Begin() {
	p.text.Reset()
	p.call = nil
}

// Consume folds one chunk into the reply. It returns model.ErrCancelled
// once ctx is done.
func (p *StreamProcessor) Consume(ctx context.Context, chunk model.StreamChunk) error {
	if ctx.Err() != nil {
		return model.ErrCancelled
	}

	switch chunk.Kind {
	case model.ChunkText:
		p.text.WriteString(chunk.Text)
		if p.stream {
			p.out.WriteText(chunk.Text)
		}
	case model.ChunkCall:
		if p.call == nil {
			p.call = make(map[string]string, len(chunk.Call))
		}
		for k, v := range chunk.Call {
			p.call[k] += v
		}
	}
	return nil
}

// End runs after every attempt. The accumulated text and payload are
// always logged, including partial replies cut off by an error.
func (p *StreamProcessor) End(err error) {
	text := p.text.String()

	if text != "" {
		switch {
		case p.stream && !strings.HasSuffix(text, "\n"):
			p.out.WriteText("\n")
		case !p.stream && err == nil:
			if mw, ok := p.out.(MarkdownWriter); ok {
				mw.WriteMarkdown(text)
			} else {
				p.out.WriteText(text)
			}
		}
	}

	logged := text
	if payload := p.payload(); payload != "" {
		logged += "\n" + payload
	}
	p.out.LogExchange(DirectionResponse, logged)

	data := map[string]any{
		"chars":    len(text),
		"has_call": len(p.call) > 0,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	observability.Emit(context.Background(), p.observer, observability.EventStreamComplete, observability.LevelVerbose, "coder.stream", data)
}

// payload renders the call fields in key order.
func (p *StreamProcessor) payload() string {
	if len(p.call) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p.call))
	for k := range p.call {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, p.call[k])
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Response returns the assembled reply. A payload whose arguments are not
// valid JSON is reported through ParseErr and yields no Args.
func (p *StreamProcessor) Response() model.AssembledResponse {
	resp := model.AssembledResponse{Text: p.text.String()}
	if len(p.call) == 0 {
		return resp
	}

	resp.Call = make(map[string]string, len(p.call))
	for k, v := range p.call {
		resp.Call[k] = v
	}

	raw := strings.TrimSpace(resp.Call["arguments"])
	if raw == "" {
		resp.ParseErr = fmt.Errorf("%w: no arguments", model.ErrMalformedPayload)
		return resp
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		resp.ParseErr = fmt.Errorf("%w: %v", model.ErrMalformedPayload, err)
		return resp
	}
	resp.Args = args
	return resp
}
