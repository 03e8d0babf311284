package llm

// Config selects and configures the primary and fallback providers.
type Config struct {
	// Primary names the first provider tried: "gemini", "anthropic",
	// "openai" or "mock".
	Primary string

	// Fallback names the provider escalated to after the primary exhausts
	// its retry budget. Empty disables fallback.
	Fallback string

	Gemini    GeminiConfig
	Anthropic AnthropicConfig
	OpenAI    OpenAIConfig

	// MaxAttempts is the per-provider retry budget.
	MaxAttempts int

	// MaxTokens caps each response.
	MaxTokens int

	// Temperature for generation requests.
	Temperature float64
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}
