// Package stream implements the Streaming Generator: it drives the final
// LLM call's token stream, forwards deltas to an SSE sink while the sink
// is connected, and keeps draining the upstream stream to completion even
// after the sink disconnects — the provider bills for a started stream
// regardless of whether the client is still reading it.
package stream

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/politely/pkg/llm"
	"github.com/codeready-toolchain/politely/pkg/locks"
)

// Sink is the minimal interface the generator needs from an SSE
// transport: send one named event, and report whether the send
// succeeded. A failed send marks the sink disconnected for the remainder
// of the request; Generate never re-attempts a dead sink.
type Sink interface {
	Send(event string, payload any) bool
}

// Result is the Streaming Generator's contract. Unmasking happens after
// the stream closes, once the full raw buffer is known.
type Result struct {
	UnmaskedText     string
	RawContent       string
	PromptTokens     int
	CompletionTokens int
}

// Generate issues the streaming completion call and forwards each text
// chunk to sink as a "delta" event until the first send failure, after
// which it keeps consuming the channel silently so the upstream call
// still completes and usage is still recorded.
func Generate(ctx context.Context, client llm.Client, req llm.Request, spans []locks.Span, sink Sink) (Result, error) {
	chunks, err := client.Stream(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("streaming generator: %w", err)
	}

	var raw strings.Builder
	var promptTokens, completionTokens int
	disconnected := false

	for chunk := range chunks {
		switch c := chunk.(type) {
		case llm.TextChunk:
			raw.WriteString(c.Content)
			if !disconnected {
				if ok := sink.Send("delta", c.Content); !ok {
					disconnected = true
				}
			}
		case llm.UsageChunk:
			promptTokens = c.PromptTokens
			completionTokens = c.CompletionTokens
		case llm.ErrorChunk:
			return Result{}, fmt.Errorf("streaming generator: upstream error: %s", c.Message)
		}
	}

	rawContent := raw.String()
	unmasked := locks.Unmask(rawContent, spans)

	return Result{
		UnmaskedText:     unmasked.Text,
		RawContent:       rawContent,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}, nil
}
