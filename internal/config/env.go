package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// envOverlay holds the credentials and identity values that may arrive via
// the environment instead of the config file. File values win; the overlay
// only fills fields the file left empty.
type envOverlay struct {
	ElevenLabsAPIKey string `env:"ELEVENLABS_API_KEY"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	OllamaHost       string `env:"OLLAMA_HOST"`
	EngineerName     string `env:"ENGINEER_NAME"`
}

func (c *Config) applyEnvironment() error {
	overlay, err := env.ParseAs[envOverlay]()
	if err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	setIfEmpty(&c.ElevenLabs.APIKey, overlay.ElevenLabsAPIKey)
	setIfEmpty(&c.OpenAITTS.APIKey, overlay.OpenAIAPIKey)
	setIfEmpty(&c.Summarizer.OpenAIAPIKey, overlay.OpenAIAPIKey)
	setIfEmpty(&c.Summarizer.AnthropicKey, overlay.AnthropicAPIKey)
	setIfEmpty(&c.Summarizer.OllamaBaseURL, overlay.OllamaHost)
	setIfEmpty(&c.Engineer.Name, overlay.EngineerName)
	return nil
}

func setIfEmpty(dst *string, value string) {
	if strings.TrimSpace(*dst) == "" && strings.TrimSpace(value) != "" {
		*dst = strings.TrimSpace(value)
	}
}
