// Package hooks implements the ephemeral agent hook entry points. Each hook
// reads a JSON payload from stdin, triggers at most one announcement, and
// must never fail the calling agent: callers always exit zero, errors are
// logged and returned only for observability.
package hooks

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"chime/internal/announce"
	"chime/internal/config"
	"chime/internal/lockfile"
	"chime/internal/logging"
	"chime/internal/messages"
	"chime/internal/playback"
	"chime/internal/procexec"
	"chime/internal/signalfile"
	"chime/internal/speech"
	"chime/internal/summary"
	"chime/internal/ttscache"
)

// waitingMessageFragment identifies the generic agent idle notification.
// Payloads carrying it are ignored so routine permission prompts stay silent.
const waitingMessageFragment = "is waiting for your input"

// supervisedBudget bounds the summary hook, which waits for the summarizer
// and playback instead of detaching.
const supervisedBudget = 15 * time.Second

type notifyPayload struct {
	Message string `json:"message"`
}

type stopPayload struct {
	SessionID string `json:"session_id"`
}

type summaryPayload struct {
	TranscriptPath string `json:"transcript_path"`
}

// Hook dispatches hook payloads either to the running daemon via signal
// markers or, when no daemon is up, directly.
type Hook struct {
	cfg        *config.Config
	channel    *signalfile.Channel
	selector   *messages.Selector
	logger     *slog.Logger
	executable string

	daemonUp func() bool
	detach   func(command string, args ...string) (int, error)
	announce func(ctx context.Context, req announce.Request) (announce.Announcement, error)
}

// Option configures a Hook.
type Option func(*Hook)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hook) {
		if logger != nil {
			h.logger = logging.NewComponentLogger(logger, "hooks")
		}
	}
}

// WithDaemonProbe overrides daemon liveness detection, primarily for tests.
func WithDaemonProbe(probe func() bool) Option {
	return func(h *Hook) {
		if probe != nil {
			h.daemonUp = probe
		}
	}
}

// WithDetach overrides background process spawning, primarily for tests.
func WithDetach(detach func(command string, args ...string) (int, error)) Option {
	return func(h *Hook) {
		if detach != nil {
			h.detach = detach
		}
	}
}

// WithAnnouncer overrides the direct announcement pipeline, primarily for
// tests.
func WithAnnouncer(fn func(ctx context.Context, req announce.Request) (announce.Announcement, error)) Option {
	return func(h *Hook) {
		if fn != nil {
			h.announce = fn
		}
	}
}

// New builds hook dispatch over the configured signal directory.
func New(cfg *config.Config, opts ...Option) *Hook {
	h := &Hook{
		cfg:     cfg,
		channel: signalfile.New(cfg.Paths.SignalDir),
		selector: messages.NewSelector(
			cfg.Engineer.Name,
			cfg.Messages.PersonalizationProbability,
			cfg.Messages.SummarizerProbability,
		),
		logger: logging.NewNop(),
		detach: procexec.Detach,
	}
	if exe, err := os.Executable(); err == nil {
		h.executable = exe
	}
	h.daemonUp = func() bool {
		pid, err := lockfile.ReadPID(cfg.PIDFilePath())
		return err == nil && pid > 0 && lockfile.Alive(pid)
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Notify handles the agent-needs-input hook. The generic idle message is
// dropped; anything else raises a notify marker for the daemon, or detaches
// a one-shot announcement when no daemon is running.
func (h *Hook) Notify(ctx context.Context, stdin io.Reader) error {
	var payload notifyPayload
	if err := decode(stdin, &payload); err != nil {
		h.logger.Debug("malformed notify payload ignored", logging.Error(err))
		return nil
	}
	if strings.Contains(payload.Message, waitingMessageFragment) {
		return nil
	}

	if h.daemonUp() {
		if err := h.channel.Raise(signalfile.KindNotify); err != nil {
			h.logger.Warn("raise notify signal failed", logging.Error(err))
			return err
		}
		return nil
	}
	return h.spawnSay(h.selector.Notification())
}

// Stop handles the task-finished hook. With a running daemon it raises a
// stop marker; otherwise it detaches a one-shot completion announcement,
// optionally tagged with the session identifier.
func (h *Hook) Stop(ctx context.Context, stdin io.Reader) error {
	var payload stopPayload
	if err := decode(stdin, &payload); err != nil {
		h.logger.Debug("malformed stop payload ignored", logging.Error(err))
	}

	if h.daemonUp() {
		if err := h.channel.Raise(signalfile.KindStop); err != nil {
			h.logger.Warn("raise stop signal failed", logging.Error(err))
			return err
		}
		return nil
	}

	// Direct mode must return within the fire-and-forget budget, so the
	// message always comes from the static pool; the LLM novelty draw
	// happens only on the daemon path.
	message := h.selector.Completion()
	if h.cfg.Messages.SessionIdentifier && payload.SessionID != "" {
		message = messages.WithSessionIdentifier(message, payload.SessionID)
	}
	return h.spawnSay(message)
}

// Summary handles the response-summary hook: extract the latest assistant
// response from the transcript, condense it, and speak it. Unlike the other
// hooks this one supervises the full pipeline under a bounded deadline.
func (h *Hook) Summary(ctx context.Context, stdin io.Reader) error {
	var payload summaryPayload
	if err := decode(stdin, &payload); err != nil {
		h.logger.Debug("malformed summary payload ignored", logging.Error(err))
		return nil
	}
	if strings.TrimSpace(payload.TranscriptPath) == "" {
		return nil
	}

	text, err := summary.LatestResponse(payload.TranscriptPath)
	if err != nil {
		h.logger.Warn("read transcript failed", logging.Error(err),
			logging.String("transcript_path", payload.TranscriptPath))
		return err
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, supervisedBudget)
	defer cancel()

	announcer := h.announce
	if announcer == nil {
		announcer = h.buildDirectAnnouncer().Announce
	}
	ann, err := announcer(ctx, announce.Request{Kind: announce.KindSummary, TranscriptText: text})
	if err != nil {
		h.logger.Warn("summary announcement failed", logging.Error(err),
			logging.String(logging.FieldRequestID, ann.ID))
		return err
	}
	return nil
}

// spawnSay detaches a one-shot announcement so the hook returns within its
// fire-and-forget budget.
func (h *Hook) spawnSay(message string) error {
	if h.executable == "" {
		h.logger.Warn("hook executable path unknown; announcement skipped")
		return nil
	}
	if _, err := h.detach(h.executable, "say", message); err != nil {
		h.logger.Warn("detach announcement failed", logging.Error(err))
		return err
	}
	return nil
}

// buildDirectAnnouncer assembles the in-process pipeline used by the
// supervised summary hook.
func (h *Hook) buildDirectAnnouncer() *announce.Announcer {
	cache := ttscache.New(h.cfg.Paths.CacheDir, h.logger)
	renderer := speech.FromConfig(h.cfg, cache, speech.WithLogger(h.logger))
	player := playback.New(h.cfg.Playback, h.cfg.PlaybackLockPath(), playback.WithLogger(h.logger))

	opts := []announce.Option{announce.WithLogger(h.logger)}
	if h.cfg.Summarizer.Enabled {
		opts = append(opts, announce.WithSummarizer(
			summary.FromConfig(h.cfg.Summarizer, h.selector.Completion, summary.WithLogger(h.logger)),
		))
	}
	return announce.New(h.selector, renderer, player, opts...)
}

func decode(stdin io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(stdin, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
