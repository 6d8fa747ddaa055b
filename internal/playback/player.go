// Package playback plays synthesized audio through the first working
// player on the machine, holding an exclusivity lock so overlapping
// announcements are dropped rather than layered.
package playback

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"chime/internal/chain"
	"chime/internal/config"
	"chime/internal/lockfile"
	"chime/internal/logging"
	"chime/internal/procexec"
	"chime/internal/services"
)

const defaultTimeout = 10 * time.Second

// Result describes a completed playback.
type Result struct {
	Player   string
	Duration time.Duration
}

// Player resolves audio bytes to sound.
type Player struct {
	chain   *chain.Chain[bool]
	lock    *lockfile.Lock
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Player.
type Option func(*Player)

// WithLogger attaches a logger for per-attempt diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Player) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithBackends overrides the resolved backend list, primarily for tests.
func WithBackends(backends []chain.Backend[bool]) Option {
	return func(p *Player) {
		p.chain = chain.New("playback", backends, func() bool { return false })
	}
}

// New builds a player from configuration. External binaries are tried in
// the configured order; an in-process decoder backend closes the chain.
func New(cfg config.Playback, lockPath string, opts ...Option) *Player {
	p := &Player{
		lock:    lockfile.New(lockPath),
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		logger:  logging.NewNop(),
	}
	if p.timeout <= 0 {
		p.timeout = defaultTimeout
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.chain == nil {
		backends := make([]chain.Backend[bool], 0, len(cfg.Players)+1)
		for _, name := range cfg.Players {
			backends = append(backends, commandBackend(name, cfg.Volume, p.timeout))
		}
		backends = append(backends, speakerBackend(cfg.Volume, p.timeout))
		p.chain = chain.New("playback", backends, func() bool { return false },
			chain.WithLogger[bool](p.logger))
	}
	return p
}

// Play sounds the audio, or drops it when another playback holds the lock.
// A busy lock returns an error wrapping services.ErrBusy; chain exhaustion
// wraps services.ErrExhausted.
func (p *Player) Play(ctx context.Context, audio []byte) (Result, error) {
	started := time.Now()
	if len(audio) == 0 {
		return Result{}, services.Wrap(services.ErrBackendFailure, "", "play", "no audio to play", nil)
	}

	held, err := p.lock.TryAcquire()
	if err != nil {
		return Result{}, services.Wrap(services.ErrBackendFailure, "", "play", "acquire playback lock", err)
	}
	if !held {
		return Result{}, services.Wrap(services.ErrBusy, "", "play", "another announcement is playing", nil)
	}
	defer p.lock.Release()

	file, err := os.CreateTemp("", "chime-play-*.mp3")
	if err != nil {
		return Result{}, services.Wrap(services.ErrBackendFailure, "", "play", "temp audio file", err)
	}
	path := file.Name()
	defer os.Remove(path)
	if _, err := file.Write(audio); err != nil {
		file.Close()
		return Result{}, services.Wrap(services.ErrBackendFailure, "", "play", "write audio file", err)
	}
	if err := file.Close(); err != nil {
		return Result{}, services.Wrap(services.ErrBackendFailure, "", "play", "close audio file", err)
	}

	playCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	resolved := p.chain.Resolve(playCtx, path)
	if resolved.Fallback {
		return Result{Duration: time.Since(started)},
			services.Wrap(services.ErrExhausted, "", "play", "no player could sound the audio", nil)
	}
	return Result{Player: resolved.Backend, Duration: time.Since(started)}, nil
}

// commandBackend wraps one external player binary.
func commandBackend(name string, volume float64, timeout time.Duration) chain.Backend[bool] {
	return chain.Func[bool]{
		BackendName: name,
		EligibleFn: func(context.Context) bool {
			_, ok := procexec.LookPath(name)
			return ok
		},
		TimeoutVal: timeout,
		InvokeFn: func(ctx context.Context, path string) (bool, error) {
			binary, ok := procexec.LookPath(name)
			if !ok {
				return false, fmt.Errorf("player %s vanished from PATH", name)
			}
			spec := procexec.Spec{
				Command: binary,
				Args:    playerArgs(name, volume, path),
			}
			if _, err := procexec.Run(ctx, spec); err != nil {
				return false, err
			}
			return true, nil
		},
	}
}

// playerArgs maps the configured volume onto each player's own scale.
// Unknown players get the bare file path.
func playerArgs(name string, volume float64, path string) []string {
	if volume <= 0 || volume > 1 {
		volume = 1
	}
	switch name {
	case "afplay":
		return []string{"-v", strconv.FormatFloat(volume, 'f', 2, 64), path}
	case "mpg123":
		scaled := int(volume * 32768)
		return []string{"-q", "-f", strconv.Itoa(scaled), path}
	case "ffplay":
		percent := int(volume * 100)
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-volume", strconv.Itoa(percent), path}
	default:
		return []string{path}
	}
}
