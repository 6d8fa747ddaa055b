// Package speech turns announcement text into audio bytes, consulting the
// content-addressed cache before falling through ranked synthesis backends.
package speech

import (
	"context"
	"log/slog"
	"time"

	"chime/internal/chain"
	"chime/internal/config"
	"chime/internal/logging"
	"chime/internal/services"
	"chime/internal/services/elevenlabs"
	"chime/internal/services/localvoice"
	"chime/internal/services/openaitts"
	"chime/internal/ttscache"
)

// Backend pairs a synthesis backend with the voice label its audio is
// cached under.
type Backend struct {
	chain.Backend[[]byte]
	Voice string
}

// Result describes how one piece of audio was obtained.
type Result struct {
	Audio []byte
	// Backend names the synthesis backend, or the backend whose cached
	// audio was served.
	Backend  string
	Voice    string
	CacheHit bool
	Duration time.Duration
}

// Synthesizer resolves text to audio through cache then chain.
type Synthesizer struct {
	backends []Backend
	chain    *chain.Chain[[]byte]
	cache    *ttscache.Cache
	logger   *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger attaches a logger for cache and chain diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a synthesizer over explicit backends in rank order.
func New(backends []Backend, cache *ttscache.Cache, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		backends: backends,
		cache:    cache,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	inner := make([]chain.Backend[[]byte], len(backends))
	for i, backend := range backends {
		inner[i] = backend.Backend
	}
	s.chain = chain.New("speech", inner, func() []byte { return nil },
		chain.WithEmpty[[]byte](func(audio []byte) bool { return len(audio) == 0 }),
		chain.WithLogger[[]byte](s.logger))
	return s
}

// FromConfig wires the standard rank order: ElevenLabs, then OpenAI, then a
// local engine when one is installed.
func FromConfig(cfg *config.Config, cache *ttscache.Cache, opts ...Option) *Synthesizer {
	elClient := elevenlabs.NewClient(cfg.ElevenLabs.APIKey, cfg.ElevenLabs.VoiceID, cfg.ElevenLabs.ModelID)
	oaClient := openaitts.NewClient(cfg.OpenAITTS.APIKey, cfg.OpenAITTS.Voice, cfg.OpenAITTS.Model)

	backends := []Backend{
		{
			Voice: "elevenlabs-" + elClient.VoiceID(),
			Backend: chain.Func[[]byte]{
				BackendName: "elevenlabs",
				EligibleFn:  func(context.Context) bool { return elClient.HasCredentials() },
				TimeoutVal:  time.Duration(cfg.ElevenLabs.TimeoutSeconds) * time.Second,
				InvokeFn: func(ctx context.Context, text string) ([]byte, error) {
					return elClient.Synthesize(ctx, text)
				},
			},
		},
		{
			Voice: "openai-" + oaClient.Voice(),
			Backend: chain.Func[[]byte]{
				BackendName: "openaitts",
				EligibleFn:  func(context.Context) bool { return oaClient.HasCredentials() },
				TimeoutVal:  time.Duration(cfg.OpenAITTS.TimeoutSeconds) * time.Second,
				InvokeFn: func(ctx context.Context, text string) ([]byte, error) {
					return oaClient.Synthesize(ctx, text)
				},
			},
		},
	}

	if cfg.LocalVoice.Enabled {
		timeout := time.Duration(cfg.LocalVoice.TimeoutSeconds) * time.Second
		if synth, ok := localvoice.New(cfg.LocalVoice.Command, cfg.LocalVoice.Voice, timeout); ok {
			backends = append(backends, Backend{
				Voice: "local-" + synth.Command(),
				Backend: chain.Func[[]byte]{
					BackendName: "localvoice",
					TimeoutVal:  timeout,
					InvokeFn: func(ctx context.Context, text string) ([]byte, error) {
						return synth.Synthesize(ctx, text)
					},
				},
			})
		}
	}
	return New(backends, cache, opts...)
}

// Render resolves audio for text. Cached audio is served regardless of
// backend eligibility so revoked credentials never silence known phrases.
// Exhaustion of the chain returns an error wrapping services.ErrExhausted.
func (s *Synthesizer) Render(ctx context.Context, text string) (Result, error) {
	started := time.Now()

	for _, backend := range s.backends {
		audio, hit, err := s.cache.Lookup(text, backend.Voice)
		if err != nil {
			s.logger.Warn("cache entry rejected",
				logging.String(logging.FieldComponent, "speech"),
				logging.String(logging.FieldVoice, backend.Voice),
				logging.Error(err))
			continue
		}
		if hit {
			return Result{
				Audio:    audio,
				Backend:  backend.Backend.Name(),
				Voice:    backend.Voice,
				CacheHit: true,
				Duration: time.Since(started),
			}, nil
		}
	}

	resolved := s.chain.Resolve(ctx, text)
	if resolved.Fallback {
		return Result{Duration: time.Since(started)},
			services.Wrap(services.ErrExhausted, "", "render", "no synthesis backend produced audio", nil)
	}

	voice := s.voiceFor(resolved.Backend)
	audio, _, err := s.cache.GetOrCreate(ctx, text, voice, func(context.Context) ([]byte, error) {
		return resolved.Value, nil
	})
	if err != nil {
		// Caching failed; the audio itself is still good.
		s.logger.Warn("cache store failed",
			logging.String(logging.FieldComponent, "speech"),
			logging.String(logging.FieldVoice, voice),
			logging.Error(err))
		audio = resolved.Value
	}
	return Result{
		Audio:    audio,
		Backend:  resolved.Backend,
		Voice:    voice,
		Duration: time.Since(started),
	}, nil
}

func (s *Synthesizer) voiceFor(backendName string) string {
	for _, backend := range s.backends {
		if backend.Backend.Name() == backendName {
			return backend.Voice
		}
	}
	return backendName
}
