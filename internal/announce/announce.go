// Package announce orchestrates one announcement end to end: pick the
// message, resolve audio, play it, and record the outcome.
package announce

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"chime/internal/history"
	"chime/internal/logging"
	"chime/internal/messages"
	"chime/internal/playback"
	"chime/internal/services"
	"chime/internal/speech"
	"chime/internal/summary"
)

// Announcement kinds, recorded in history and reported over IPC.
const (
	KindNotify  = "notify"
	KindStop    = "stop"
	KindSummary = "summary"
	KindSay     = "say"
	KindTest    = "test"
)

// Renderer resolves text to audio.
type Renderer interface {
	Render(ctx context.Context, text string) (speech.Result, error)
}

// SoundPlayer sounds audio bytes.
type SoundPlayer interface {
	Play(ctx context.Context, audio []byte) (playback.Result, error)
}

// Summarist condenses task output into a spoken sentence, or produces a
// fresh completion phrase when there is no output to work from.
type Summarist interface {
	Summarize(ctx context.Context, text string) summary.Result
	Generate(ctx context.Context) summary.Result
}

// Recorder persists announcement outcomes.
type Recorder interface {
	Append(ctx context.Context, record history.Record) (history.Record, error)
}

// Request describes one announcement to make.
type Request struct {
	Kind string
	// Text overrides message selection when set.
	Text string
	// TranscriptText feeds the summarizer for stop and summary kinds.
	TranscriptText string
	// SessionID, when set, prefixes the message with a phonetic tag.
	SessionID string
}

// Announcement is the outcome of one request.
type Announcement struct {
	ID           string
	Kind         string
	Message      string
	Backend      string
	Voice        string
	CacheHit     bool
	Fallback     bool
	LLMGenerated bool
	Duration     time.Duration
}

// Announcer wires message policy, synthesis, playback, and history.
type Announcer struct {
	selector   *messages.Selector
	renderer   Renderer
	player     SoundPlayer
	summarizer Summarist
	recorder   Recorder
	logger     *slog.Logger
}

// Option configures an Announcer.
type Option func(*Announcer)

// WithSummarizer enables summarizer-backed completion messages.
func WithSummarizer(s Summarist) Option {
	return func(a *Announcer) { a.summarizer = s }
}

// WithRecorder enables history persistence.
func WithRecorder(r Recorder) Option {
	return func(a *Announcer) { a.recorder = r }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Announcer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New builds an announcer over the given policy and audio pipeline.
func New(selector *messages.Selector, renderer Renderer, player SoundPlayer, opts ...Option) *Announcer {
	a := &Announcer{
		selector: selector,
		renderer: renderer,
		player:   player,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Announce runs one request. The returned announcement is populated even on
// failure; the error classifies what went wrong (services.ErrBusy means the
// announcement was dropped because another one was already playing).
func (a *Announcer) Announce(ctx context.Context, req Request) (Announcement, error) {
	result := Announcement{ID: uuid.NewString(), Kind: req.Kind}
	ctx = services.WithRequestID(ctx, result.ID)
	started := time.Now()

	message, llmGenerated, fellBack := a.selectMessage(ctx, req)
	if message == "" {
		err := services.Wrap(services.ErrConfiguration, "", "announce", "no message to announce", nil)
		a.record(ctx, result, err)
		return result, err
	}
	if req.SessionID != "" {
		message = messages.WithSessionIdentifier(message, req.SessionID)
	}
	result.Message = message
	result.LLMGenerated = llmGenerated
	result.Fallback = fellBack

	rendered, err := a.renderer.Render(ctx, message)
	if err != nil {
		result.Duration = time.Since(started)
		a.record(ctx, result, err)
		return result, err
	}
	result.Backend = rendered.Backend
	result.Voice = rendered.Voice
	result.CacheHit = rendered.CacheHit

	if _, err := a.player.Play(ctx, rendered.Audio); err != nil {
		result.Duration = time.Since(started)
		if errors.Is(err, services.ErrBusy) {
			a.logger.Info("announcement dropped",
				logging.String(logging.FieldComponent, "announce"),
				logging.String(logging.FieldRequestID, result.ID))
		}
		a.record(ctx, result, err)
		return result, err
	}

	result.Duration = time.Since(started)
	a.record(ctx, result, nil)
	return result, nil
}

// selectMessage applies the per-kind message policy. The extra returns mark
// summarizer-produced text and summarizer passes that fell back.
func (a *Announcer) selectMessage(ctx context.Context, req Request) (message string, llmGenerated, fellBack bool) {
	if req.Text != "" {
		return req.Text, false, false
	}
	switch req.Kind {
	case KindNotify, KindTest:
		return a.selector.Notification(), false, false
	case KindStop:
		if a.summarizer != nil && a.selector.UseSummarizer() {
			if req.TranscriptText != "" {
				return a.summarize(ctx, req.TranscriptText)
			}
			return a.generate(ctx)
		}
		return a.selector.Completion(), false, false
	case KindSummary:
		if a.summarizer != nil {
			return a.summarize(ctx, req.TranscriptText)
		}
		return a.selector.Completion(), false, false
	default:
		return "", false, false
	}
}

func (a *Announcer) summarize(ctx context.Context, transcript string) (string, bool, bool) {
	result := a.summarizer.Summarize(ctx, transcript)
	generated := !result.Fallback && result.Backend != ""
	return result.Message, generated, !generated
}

func (a *Announcer) generate(ctx context.Context) (string, bool, bool) {
	result := a.summarizer.Generate(ctx)
	generated := !result.Fallback && result.Backend != ""
	return result.Message, generated, !generated
}

func (a *Announcer) record(ctx context.Context, ann Announcement, annErr error) {
	if a.recorder == nil {
		return
	}
	record := history.Record{
		ID:           ann.ID,
		Kind:         ann.Kind,
		Message:      ann.Message,
		Backend:      ann.Backend,
		Voice:        ann.Voice,
		CacheHit:     ann.CacheHit,
		Fallback:     ann.Fallback,
		LLMGenerated: ann.LLMGenerated,
	}
	if annErr != nil {
		record.ErrorMessage = annErr.Error()
	}
	if _, err := a.recorder.Append(ctx, record); err != nil {
		a.logger.Warn("history append failed",
			logging.String(logging.FieldComponent, "announce"),
			logging.String(logging.FieldRequestID, ann.ID),
			logging.Error(err))
	}
}
