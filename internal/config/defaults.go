package config

const (
	defaultSignalDir = "~/.local/share/chime/signals"
	defaultCacheDir  = "~/.cache/chime/tts"
	defaultDataDir   = "~/.local/share/chime"
	defaultLogDir    = "~/.local/share/chime/logs"

	defaultElevenLabsVoiceID = "21m00Tcm4TlvDq8ikWAM"
	defaultElevenLabsModelID = "eleven_turbo_v2_5"
	defaultElevenLabsBaseURL = "https://api.elevenlabs.io"
	defaultElevenLabsTimeout = 10

	defaultOpenAIVoice      = "ash"
	defaultOpenAIModel      = "tts-1"
	defaultOpenAITTSBaseURL = "https://api.openai.com"
	defaultOpenAITimeout    = 10

	defaultLocalVoiceTimeout = 10

	defaultSummarizerTimeout = 2
	defaultSummarizerOpenAI  = "gpt-4o-mini"
	defaultAnthropicModel    = "claude-3-5-haiku-20241022"
	defaultOllamaBaseURL     = "http://127.0.0.1:11434"
	defaultOllamaModel       = "llama3.2"

	defaultPersonalizationProbability = 0.3
	defaultSummarizerProbability      = 0.05

	defaultPlaybackVolume  = 1.0
	defaultPlaybackTimeout = 10

	defaultPollIntervalMillis = 100

	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30

	defaultHistoryPath = "~/.local/share/chime/history.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SignalDir: defaultSignalDir,
			CacheDir:  defaultCacheDir,
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
		},
		ElevenLabs: ElevenLabs{
			VoiceID:        defaultElevenLabsVoiceID,
			ModelID:        defaultElevenLabsModelID,
			BaseURL:        defaultElevenLabsBaseURL,
			TimeoutSeconds: defaultElevenLabsTimeout,
		},
		OpenAITTS: OpenAITTS{
			Voice:          defaultOpenAIVoice,
			Model:          defaultOpenAIModel,
			BaseURL:        defaultOpenAITTSBaseURL,
			TimeoutSeconds: defaultOpenAITimeout,
		},
		LocalVoice: LocalVoice{
			Enabled:        true,
			TimeoutSeconds: defaultLocalVoiceTimeout,
		},
		Summarizer: Summarizer{
			Enabled:        true,
			TimeoutSeconds: defaultSummarizerTimeout,
			OpenAIModel:    defaultSummarizerOpenAI,
			AnthropicModel: defaultAnthropicModel,
			OllamaModel:    defaultOllamaModel,
		},
		Messages: Messages{
			PersonalizationProbability: defaultPersonalizationProbability,
			SummarizerProbability:      defaultSummarizerProbability,
			SessionIdentifier:          false,
		},
		Playback: Playback{
			Players:        []string{"afplay", "mpg123", "ffplay"},
			Volume:         defaultPlaybackVolume,
			TimeoutSeconds: defaultPlaybackTimeout,
		},
		Daemon: Daemon{
			PollIntervalMillis: defaultPollIntervalMillis,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
	}
}
