package llm

import (
	"context"
	"encoding/json"
)

// Provider is the model-client capability injected into the generation
// orchestrator. Implementations send one prompt and return the raw model
// output; retries and fallback are owned by the caller.
type Provider interface {
	// Generate sends a prompt to the model and returns its raw response.
	// When the request carries a Schema the provider uses its native
	// structured-output mechanism; the content is still returned unvalidated
	// so the caller can run its repair pipeline first.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name returns a short provider identifier for logging ("gemini",
	// "anthropic", "openai", "mock").
	Name() string

	// ModelID returns the model identifier this provider is configured with.
	ModelID() string
}

// Request describes one model invocation.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Prompt is the user message. Generation is single-turn.
	Prompt string

	// Attachment is an optional binary source document, sent as a typed
	// binary part rather than embedded in the prompt text.
	Attachment *Attachment

	// Schema, when set, requests structured output conforming to it.
	Schema *Schema

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature controls randomness, 0.0-1.0. Zero means deterministic.
	Temperature float64
}

// Attachment is a binary part of the request, typically a PDF.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Schema names a JSON Schema constraint document for structured output.
type Schema struct {
	// Name identifies the schema, kebab-case ("academic-question-set").
	Name string

	// Description guides the model on what the schema represents.
	Description string

	// Definition is the JSON Schema definition as a plain map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is the raw model output. With a schema request this should be
	// a JSON document, but callers must not assume it parses cleanly.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
