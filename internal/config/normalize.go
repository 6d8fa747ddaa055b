package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngineer()
	c.normalizeSynthesis()
	c.normalizeSummarizer()
	c.normalizePlayback()
	c.normalizeDaemon()
	c.normalizeLogging()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.SignalDir) == "" {
		c.Paths.SignalDir = defaultSignalDir
	}
	if c.Paths.SignalDir, err = expandPath(c.Paths.SignalDir); err != nil {
		return fmt.Errorf("paths.signal_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEngineer() {
	c.Engineer.Name = strings.TrimSpace(c.Engineer.Name)
}

func (c *Config) normalizeSynthesis() {
	c.ElevenLabs.APIKey = strings.TrimSpace(c.ElevenLabs.APIKey)
	c.ElevenLabs.VoiceID = strings.TrimSpace(c.ElevenLabs.VoiceID)
	if c.ElevenLabs.VoiceID == "" {
		c.ElevenLabs.VoiceID = defaultElevenLabsVoiceID
	}
	c.ElevenLabs.ModelID = strings.TrimSpace(c.ElevenLabs.ModelID)
	if c.ElevenLabs.ModelID == "" {
		c.ElevenLabs.ModelID = defaultElevenLabsModelID
	}
	c.ElevenLabs.BaseURL = strings.TrimRight(strings.TrimSpace(c.ElevenLabs.BaseURL), "/")
	if c.ElevenLabs.BaseURL == "" {
		c.ElevenLabs.BaseURL = defaultElevenLabsBaseURL
	}
	if c.ElevenLabs.TimeoutSeconds <= 0 {
		c.ElevenLabs.TimeoutSeconds = defaultElevenLabsTimeout
	}

	c.OpenAITTS.APIKey = strings.TrimSpace(c.OpenAITTS.APIKey)
	c.OpenAITTS.Voice = strings.TrimSpace(c.OpenAITTS.Voice)
	if c.OpenAITTS.Voice == "" {
		c.OpenAITTS.Voice = defaultOpenAIVoice
	}
	c.OpenAITTS.Model = strings.TrimSpace(c.OpenAITTS.Model)
	if c.OpenAITTS.Model == "" {
		c.OpenAITTS.Model = defaultOpenAIModel
	}
	c.OpenAITTS.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAITTS.BaseURL), "/")
	if c.OpenAITTS.BaseURL == "" {
		c.OpenAITTS.BaseURL = defaultOpenAITTSBaseURL
	}
	if c.OpenAITTS.TimeoutSeconds <= 0 {
		c.OpenAITTS.TimeoutSeconds = defaultOpenAITimeout
	}

	c.LocalVoice.Command = strings.TrimSpace(c.LocalVoice.Command)
	c.LocalVoice.Voice = strings.TrimSpace(c.LocalVoice.Voice)
	if c.LocalVoice.TimeoutSeconds <= 0 {
		c.LocalVoice.TimeoutSeconds = defaultLocalVoiceTimeout
	}
}

func (c *Config) normalizeSummarizer() {
	if c.Summarizer.TimeoutSeconds <= 0 {
		c.Summarizer.TimeoutSeconds = defaultSummarizerTimeout
	}
	c.Summarizer.OpenAIAPIKey = strings.TrimSpace(c.Summarizer.OpenAIAPIKey)
	c.Summarizer.OpenAIModel = strings.TrimSpace(c.Summarizer.OpenAIModel)
	if c.Summarizer.OpenAIModel == "" {
		c.Summarizer.OpenAIModel = defaultSummarizerOpenAI
	}
	c.Summarizer.OpenAIBaseURL = strings.TrimRight(strings.TrimSpace(c.Summarizer.OpenAIBaseURL), "/")
	if c.Summarizer.OpenAIBaseURL == "" {
		c.Summarizer.OpenAIBaseURL = defaultOpenAITTSBaseURL
	}
	c.Summarizer.AnthropicKey = strings.TrimSpace(c.Summarizer.AnthropicKey)
	c.Summarizer.AnthropicModel = strings.TrimSpace(c.Summarizer.AnthropicModel)
	if c.Summarizer.AnthropicModel == "" {
		c.Summarizer.AnthropicModel = defaultAnthropicModel
	}
	c.Summarizer.OllamaBaseURL = strings.TrimRight(strings.TrimSpace(c.Summarizer.OllamaBaseURL), "/")
	if c.Summarizer.OllamaBaseURL == "" {
		c.Summarizer.OllamaBaseURL = defaultOllamaBaseURL
	}
	c.Summarizer.OllamaModel = strings.TrimSpace(c.Summarizer.OllamaModel)
	if c.Summarizer.OllamaModel == "" {
		c.Summarizer.OllamaModel = defaultOllamaModel
	}
}

func (c *Config) normalizePlayback() {
	players := make([]string, 0, len(c.Playback.Players))
	seen := make(map[string]struct{}, len(c.Playback.Players))
	for _, player := range c.Playback.Players {
		name := strings.TrimSpace(player)
		if name == "" {
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		players = append(players, name)
	}
	if len(players) == 0 {
		players = []string{"afplay", "mpg123", "ffplay"}
	}
	c.Playback.Players = players
	if c.Playback.Volume <= 0 || c.Playback.Volume > 1 {
		c.Playback.Volume = defaultPlaybackVolume
	}
	if c.Playback.TimeoutSeconds <= 0 {
		c.Playback.TimeoutSeconds = defaultPlaybackTimeout
	}
}

func (c *Config) normalizeDaemon() {
	if c.Daemon.PollIntervalMillis <= 0 {
		c.Daemon.PollIntervalMillis = defaultPollIntervalMillis
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}
