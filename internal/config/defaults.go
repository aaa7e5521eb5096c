package config

import "time"

const (
	DefaultMaxHintLength = 50
	openRouterBaseURL    = "https://openrouter.ai/api/v1"
)

// Default mirrors the production setup: Gemini Flash and Pro for the visual
// roles, two free OpenRouter models reading the description.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8000,
			MaxUploadMB:    10,
			RequestTimeout: Duration{3 * time.Minute},
		},
		Log: LogConfig{Level: "info"},
		Describer: LLMConfig{
			Name:     "gemini-describer",
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
		},
		Fast: LLMConfig{
			Name:     "gemini-flash",
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
		},
		Accurate: LLMConfig{
			Name:     "gemini-pro",
			Provider: "gemini",
			Model:    "gemini-2.5-pro",
		},
		Text: []LLMConfig{
			{Provider: "openrouter", Model: "qwen/qwen3-coder:free", BaseURL: openRouterBaseURL},
			{Provider: "openrouter", Model: "deepseek/deepseek-chat-v3.1:free", BaseURL: openRouterBaseURL},
		},
		Labels: LabelsConfig{
			Crops: []string{"Wheat", "Mustard", "Potato"},
			Diseases: []string{
				"Healthy", "Aphid", "Black Rust", "Brown Rust", "Blast Test", "Leaf Blight",
				"Common Root Rot", "Fusarium Head Blight", "Mildew", "Mite", "Septoria", "Smut",
				"Stem Fly", "Tan Spot", "Yellow Rust", "None of the Above",
			},
		},
		Consensus: ConsensusConfig{MaxHintLength: DefaultMaxHintLength},
	}
}
