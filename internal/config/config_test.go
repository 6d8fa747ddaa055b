package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chime/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("ELEVENLABS_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ENGINEER_NAME", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantSignals := filepath.Join(tempHome, ".local", "share", "chime", "signals")
	if cfg.Paths.SignalDir != wantSignals {
		t.Fatalf("unexpected signal dir: got %q want %q", cfg.Paths.SignalDir, wantSignals)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, ".cache", "chime", "tts") {
		t.Fatalf("unexpected cache dir: %q", cfg.Paths.CacheDir)
	}
	if cfg.ElevenLabs.APIKey != "" {
		t.Fatalf("expected empty ElevenLabs key by default, got %q", cfg.ElevenLabs.APIKey)
	}
	if cfg.ElevenLabs.VoiceID != "21m00Tcm4TlvDq8ikWAM" {
		t.Fatalf("unexpected default voice id: %q", cfg.ElevenLabs.VoiceID)
	}
	if cfg.OpenAITTS.Voice != "ash" || cfg.OpenAITTS.Model != "tts-1" {
		t.Fatalf("unexpected OpenAI TTS defaults: %+v", cfg.OpenAITTS)
	}
	if !cfg.LocalVoice.Enabled {
		t.Fatal("expected local voice enabled by default")
	}
	if cfg.Messages.PersonalizationProbability != 0.3 {
		t.Fatalf("unexpected personalization probability: %v", cfg.Messages.PersonalizationProbability)
	}
	if cfg.Messages.SummarizerProbability != 0.05 {
		t.Fatalf("unexpected summarizer probability: %v", cfg.Messages.SummarizerProbability)
	}
	if cfg.Daemon.PollIntervalMillis != 100 {
		t.Fatalf("unexpected poll interval: %d", cfg.Daemon.PollIntervalMillis)
	}
	if cfg.Playback.TimeoutSeconds != 10 {
		t.Fatalf("unexpected playback timeout: %d", cfg.Playback.TimeoutSeconds)
	}
	if cfg.Summarizer.TimeoutSeconds != 2 {
		t.Fatalf("unexpected summarizer timeout: %d", cfg.Summarizer.TimeoutSeconds)
	}
	if got := cfg.PIDFilePath(); !strings.HasPrefix(got, cfg.Paths.DataDir) {
		t.Fatalf("pid file %q not under data dir %q", got, cfg.Paths.DataDir)
	}
}

func TestLoadReadsFileAndOverlaysEnvironment(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("ELEVENLABS_API_KEY", "env-eleven")
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")
	t.Setenv("ENGINEER_NAME", "Ada")

	path := filepath.Join(tempHome, "chime.toml")
	content := `
[elevenlabs]
api_key = "file-eleven"
voice_id = "custom-voice"

[messages]
personalization_probability = 0.5

[playback]
players = ["mpg123", " ", "mpg123", "ffplay"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.ElevenLabs.APIKey != "file-eleven" {
		t.Fatalf("file value should win over env, got %q", cfg.ElevenLabs.APIKey)
	}
	if cfg.ElevenLabs.VoiceID != "custom-voice" {
		t.Fatalf("unexpected voice id: %q", cfg.ElevenLabs.VoiceID)
	}
	if cfg.OpenAITTS.APIKey != "env-openai" {
		t.Fatalf("expected OpenAI key from env, got %q", cfg.OpenAITTS.APIKey)
	}
	if cfg.Summarizer.AnthropicKey != "env-anthropic" {
		t.Fatalf("expected Anthropic key from env, got %q", cfg.Summarizer.AnthropicKey)
	}
	if cfg.Engineer.Name != "Ada" {
		t.Fatalf("expected engineer name from env, got %q", cfg.Engineer.Name)
	}
	if cfg.Messages.PersonalizationProbability != 0.5 {
		t.Fatalf("unexpected personalization probability: %v", cfg.Messages.PersonalizationProbability)
	}
	want := []string{"mpg123", "ffplay"}
	if len(cfg.Playback.Players) != len(want) {
		t.Fatalf("unexpected players: %v", cfg.Playback.Players)
	}
	for i, player := range want {
		if cfg.Playback.Players[i] != player {
			t.Fatalf("unexpected players: %v", cfg.Playback.Players)
		}
	}
}

func TestSummarizerOpenAIBaseURLDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("ELEVENLABS_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ENGINEER_NAME", "")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Summarizer.OpenAIAPIKey != "sk-test" {
		t.Fatalf("expected summarizer OpenAI key from env, got %q", cfg.Summarizer.OpenAIAPIKey)
	}
	if cfg.Summarizer.OpenAIBaseURL != "https://api.openai.com" {
		t.Fatalf("expected default summarizer base url, got %q", cfg.Summarizer.OpenAIBaseURL)
	}

	path := filepath.Join(tempHome, "chime.toml")
	content := `
[summarizer]
openai_base_url = "https://proxy.example.com/v1/"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, _, err = config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Summarizer.OpenAIBaseURL != "https://proxy.example.com/v1" {
		t.Fatalf("expected configured base url with slash trimmed, got %q", cfg.Summarizer.OpenAIBaseURL)
	}
}

func TestValidateRejectsBadProbability(t *testing.T) {
	cfg := config.Default()
	cfg.Messages.PersonalizationProbability = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for probability > 1")
	}
}

func TestEnsureDirectoriesCreatesTree(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("ELEVENLABS_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ENGINEER_NAME", "")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.SignalDir, cfg.Paths.CacheDir, cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}

func TestCreateSampleWritesParseableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	t.Setenv("ELEVENLABS_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ENGINEER_NAME", "")
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config should load: exists=%v err=%v", exists, err)
	}
}
