// Package llm defines the seam between the pipeline and the external LLM
// provider: a small Client interface, a sum-type Chunk for streaming
// output, and a concrete HTTP-based adapter. Every pipeline stage depends
// only on Client — never on the concrete adapter — so a stub can stand in
// for tests.
package llm

import "context"

// Client is the pipeline's only dependency on the LLM provider. A single
// Client is shared across requests — its underlying HTTP pool must be
// safe for concurrent use, exactly as the spec's shared-resource model
// requires.
type Client interface {
	// Complete issues a single non-streaming completion call.
	Complete(ctx context.Context, req Request) (Response, error)

	// Stream issues a streaming completion call. The returned channel is
	// closed when the stream completes or the context is cancelled; a
	// terminal ErrorChunk (if any) is always the last value sent.
	Stream(ctx context.Context, req Request) (<-chan Chunk, error)
}

// Request is the provider-agnostic shape every stage builds before calling
// Client. ResponseFormat, when set, asks the provider to constrain output
// (e.g. "json") — used by the Situation Analyzer.
type Request struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	SystemPrompt   string
	UserMessage    string
	ResponseFormat string // "" or "json"
}

// Response is the result of a non-streaming Complete call.
type Response struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// ChunkType identifies the kind of streaming chunk.
type ChunkType string

const (
	ChunkTypeText  ChunkType = "text"
	ChunkTypeUsage ChunkType = "usage"
	ChunkTypeError ChunkType = "error"
)

// Chunk is the interface for all streaming chunk types; a private method
// makes it a closed sum type the way the teacher's agent.Chunk is.
type Chunk interface {
	chunkType() ChunkType
}

// TextChunk carries one fragment of streamed completion text.
type TextChunk struct{ Content string }

// UsageChunk reports token consumption; delivered once, on the final chunk.
type UsageChunk struct{ PromptTokens, CompletionTokens int }

// ErrorChunk signals a provider-side failure. Retryable indicates whether
// the failure is transient (network/5xx/rate-limit) per the
// TransientLLMError taxonomy.
type ErrorChunk struct {
	Message   string
	Retryable bool
}

func (c TextChunk) chunkType() ChunkType  { return ChunkTypeText }
func (c UsageChunk) chunkType() ChunkType { return ChunkTypeUsage }
func (c ErrorChunk) chunkType() ChunkType { return ChunkTypeError }

// Type returns the ChunkType of a Chunk value without a type switch,
// mirroring the teacher's exported ChunkType() accessor pattern.
func Type(c Chunk) ChunkType { return c.chunkType() }
