package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Missing synthesis credentials
// are not an error: the backend chain treats them as ineligible backends.
func (c *Config) Validate() error {
	if err := c.validateMessages(); err != nil {
		return err
	}
	if err := c.validateTimers(); err != nil {
		return err
	}
	if err := c.validateLocalVoice(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMessages() error {
	if c.Messages.PersonalizationProbability < 0 || c.Messages.PersonalizationProbability > 1 {
		return errors.New("messages.personalization_probability must be between 0 and 1")
	}
	if c.Messages.SummarizerProbability < 0 || c.Messages.SummarizerProbability > 1 {
		return errors.New("messages.summarizer_probability must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateTimers() error {
	return ensurePositiveMap(map[string]int{
		"elevenlabs.timeout_seconds": c.ElevenLabs.TimeoutSeconds,
		"openai_tts.timeout_seconds": c.OpenAITTS.TimeoutSeconds,
		"summarizer.timeout_seconds": c.Summarizer.TimeoutSeconds,
		"playback.timeout_seconds":   c.Playback.TimeoutSeconds,
		"daemon.poll_interval_ms":    c.Daemon.PollIntervalMillis,
	})
}

func (c *Config) validateLocalVoice() error {
	if c.LocalVoice.Enabled && c.LocalVoice.Command != "" && c.LocalVoice.TimeoutSeconds <= 0 {
		return errors.New("local_voice.timeout_seconds must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
