// Package summary condenses agent task output into a single spoken
// sentence, resolving across ranked LLM backends with a static fallback.
package summary

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"chime/internal/chain"
	"chime/internal/config"
	"chime/internal/logging"
	"chime/internal/services/anthropic"
	"chime/internal/services/llm"
)

// DefaultSummary is spoken when there is nothing to summarize.
const DefaultSummary = "Task complete"

const systemPrompt = "You summarize a coding assistant's final report into one short " +
	"spoken sentence. Reply with a single sentence of at most twelve words, " +
	"first person, past tense, describing what was accomplished. No quotes, " +
	"no markdown, no preamble."

// completionPrompt asks for a fresh completion phrase when there is no task
// output to draw on.
const completionPrompt = "The task finished successfully but no report is " +
	"available. Announce that the work is done in one short, varied sentence."

const maxSummaryWords = 20

// Result is the outcome of one summarization pass.
type Result struct {
	Message string
	// Backend names the LLM that produced Message. Empty when Fallback.
	Backend string
	// Fallback is set when no backend produced usable text and Message came
	// from the fallback pool (or DefaultSummary for empty input).
	Fallback bool
	Duration time.Duration
}

// Summarizer resolves summaries across an ordered set of LLM backends.
type Summarizer struct {
	chain  *chain.Chain[string]
	logger *slog.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithLogger attaches a logger for per-attempt diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Summarizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a summarizer over explicit backends. The fallback supplies the
// spoken message when every backend fails.
func New(backends []chain.Backend[string], fallback func() string, opts ...Option) *Summarizer {
	s := &Summarizer{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.chain = chain.New("summary", backends, fallback,
		chain.WithEmpty[string](func(v string) bool { return strings.TrimSpace(v) == "" }),
		chain.WithLogger[string](s.logger))
	return s
}

// FromConfig wires the standard backend order: hosted OpenAI, then
// Anthropic, then a local Ollama endpoint probed for liveness.
func FromConfig(cfg config.Summarizer, fallback func() string, opts ...Option) *Summarizer {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	openaiClient := llm.NewClient(llm.Config{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.OpenAIModel,
		TimeoutSeconds: cfg.TimeoutSeconds,
	})
	anthropicClient := anthropic.NewClient(cfg.AnthropicKey, cfg.AnthropicModel)
	ollamaClient := llm.NewClient(llm.Config{
		BaseURL:        cfg.OllamaBaseURL,
		Model:          cfg.OllamaModel,
		TimeoutSeconds: cfg.TimeoutSeconds,
	})

	backends := []chain.Backend[string]{
		chain.Func[string]{
			BackendName: "openai",
			EligibleFn:  func(context.Context) bool { return openaiClient.HasCredentials() },
			TimeoutVal:  timeout,
			InvokeFn: func(ctx context.Context, input string) (string, error) {
				return openaiClient.Complete(ctx, systemPrompt, input)
			},
		},
		chain.Func[string]{
			BackendName: "anthropic",
			EligibleFn:  func(context.Context) bool { return anthropicClient.HasCredentials() },
			TimeoutVal:  timeout,
			InvokeFn: func(ctx context.Context, input string) (string, error) {
				return anthropicClient.Complete(ctx, systemPrompt, input)
			},
		},
		chain.Func[string]{
			BackendName: "ollama",
			EligibleFn: func(ctx context.Context) bool {
				return llm.Probe(ctx, cfg.OllamaBaseURL)
			},
			TimeoutVal: timeout,
			InvokeFn: func(ctx context.Context, input string) (string, error) {
				return ollamaClient.Complete(ctx, systemPrompt, input)
			},
		},
	}
	return New(backends, fallback, opts...)
}

// Summarize produces one spoken sentence for the given task output. Empty
// input returns DefaultSummary without touching any backend.
func (s *Summarizer) Summarize(ctx context.Context, text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Message: DefaultSummary, Fallback: true}
	}

	return s.resolve(ctx, text)
}

// Generate produces a novel completion phrase with no task output to draw
// on. Exhaustion falls back to the static pool, exactly like Summarize.
func (s *Summarizer) Generate(ctx context.Context) Result {
	return s.resolve(ctx, completionPrompt)
}

func (s *Summarizer) resolve(ctx context.Context, input string) Result {
	resolved := s.chain.Resolve(ctx, input)
	result := Result{
		Backend:  resolved.Backend,
		Fallback: resolved.Fallback,
		Duration: resolved.Duration,
	}
	if resolved.Fallback {
		result.Message = resolved.Value
		return result
	}
	result.Message = tidy(resolved.Value)
	return result
}

// tidy flattens an LLM reply into one clean spoken line.
func tidy(reply string) string {
	reply = strings.TrimSpace(reply)
	if line, _, found := strings.Cut(reply, "\n"); found {
		reply = strings.TrimSpace(line)
	}
	reply = strings.Trim(reply, `"'`)

	words := strings.Fields(reply)
	if len(words) > maxSummaryWords {
		words = words[:maxSummaryWords]
	}
	return strings.Join(words, " ")
}
