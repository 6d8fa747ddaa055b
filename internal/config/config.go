package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SignalDir string `toml:"signal_dir"`
	CacheDir  string `toml:"cache_dir"`
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
}

// Engineer contains personalization settings for spoken messages.
type Engineer struct {
	Name string `toml:"name"`
}

// ElevenLabs contains configuration for the ElevenLabs synthesis backend.
type ElevenLabs struct {
	APIKey         string `toml:"api_key"`
	VoiceID        string `toml:"voice_id"`
	ModelID        string `toml:"model_id"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// OpenAITTS contains configuration for the OpenAI speech synthesis backend.
type OpenAITTS struct {
	APIKey         string `toml:"api_key"`
	Voice          string `toml:"voice"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LocalVoice contains configuration for the offline synthesis backend.
type LocalVoice struct {
	Enabled        bool   `toml:"enabled"`
	Command        string `toml:"command"`
	Voice          string `toml:"voice"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Summarizer contains shared settings for the completion summarizer chain.
type Summarizer struct {
	Enabled        bool   `toml:"enabled"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	OpenAIAPIKey   string `toml:"openai_api_key"`
	OpenAIModel    string `toml:"openai_model"`
	OpenAIBaseURL  string `toml:"openai_base_url"`
	AnthropicKey   string `toml:"anthropic_api_key"`
	AnthropicModel string `toml:"anthropic_model"`
	OllamaBaseURL  string `toml:"ollama_base_url"`
	OllamaModel    string `toml:"ollama_model"`
}

// Messages contains selection probabilities for spoken messages.
type Messages struct {
	PersonalizationProbability float64 `toml:"personalization_probability"`
	SummarizerProbability      float64 `toml:"summarizer_probability"`
	SessionIdentifier          bool    `toml:"session_identifier"`
}

// Playback contains audio playback settings.
type Playback struct {
	Players        []string `toml:"players"`
	Volume         float64  `toml:"volume"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Daemon contains watcher loop timing settings.
type Daemon struct {
	PollIntervalMillis int `toml:"poll_interval_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// History contains configuration for the announcement log store.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Config encapsulates all configuration values for chime.
//
// Configuration sections by subsystem:
//   - Paths: signal, cache, data, and log directories
//   - Engineer: personalization name for spoken notifications
//   - ElevenLabs / OpenAITTS / LocalVoice: synthesis backend chain
//   - Summarizer: LLM completion-summary chain settings
//   - Messages: phrase selection probabilities
//   - Playback: player preference order, volume, timeout
//   - Daemon: signal poll interval
//   - Logging: log format, level, and retention
//   - History: announcement log store
type Config struct {
	Paths      Paths      `toml:"paths"`
	Engineer   Engineer   `toml:"engineer"`
	ElevenLabs ElevenLabs `toml:"elevenlabs"`
	OpenAITTS  OpenAITTS  `toml:"openai_tts"`
	LocalVoice LocalVoice `toml:"local_voice"`
	Summarizer Summarizer `toml:"summarizer"`
	Messages   Messages   `toml:"messages"`
	Playback   Playback   `toml:"playback"`
	Daemon     Daemon     `toml:"daemon"`
	Logging    Logging    `toml:"logging"`
	History    History    `toml:"history"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/chime/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded, credentials overlaid from the
// environment, and defaults applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnvironment(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("chime.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.SignalDir, c.Paths.CacheDir, c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PIDFilePath returns the daemon process record location.
func (c *Config) PIDFilePath() string {
	return filepath.Join(c.Paths.DataDir, "chimed.pid")
}

// LockFilePath returns the daemon instance lock location.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.DataDir, "chimed.lock")
}

// PlaybackLockPath returns the playback exclusivity lock location.
func (c *Config) PlaybackLockPath() string {
	return filepath.Join(c.Paths.DataDir, "playback.lock")
}

// SocketPath returns the daemon IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "chimed.sock")
}

// PollInterval returns the watcher tick duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Daemon.PollIntervalMillis) * time.Millisecond
}

// PlaybackTimeout returns the per-announcement playback deadline.
func (c *Config) PlaybackTimeout() time.Duration {
	return time.Duration(c.Playback.TimeoutSeconds) * time.Second
}

// SummarizerTimeout returns the budget for one pass over the summarizer chain.
func (c *Config) SummarizerTimeout() time.Duration {
	return time.Duration(c.Summarizer.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
