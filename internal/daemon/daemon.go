// Package daemon runs the watcher loop: poll the signal directory, turn
// raised markers into announcements, and hold the single-instance lock.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chime/internal/announce"
	"chime/internal/config"
	"chime/internal/lockfile"
	"chime/internal/logging"
	"chime/internal/services"
	"chime/internal/signalfile"
)

// ErrAlreadyRunning reports that another daemon instance holds the lock.
var ErrAlreadyRunning = errors.New("chimed is already running")

// Announcer makes one announcement.
type Announcer interface {
	Announce(ctx context.Context, req announce.Request) (announce.Announcement, error)
}

// Daemon owns the poll loop and the instance lock.
type Daemon struct {
	cfg       *config.Config
	channel   *signalfile.Channel
	announcer Announcer
	lock      *lockfile.Lock
	interval  time.Duration
	logger    *slog.Logger
	started   time.Time
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Daemon) {
		if logger != nil {
			d.logger = logging.NewComponentLogger(logger, "daemon")
		}
	}
}

// WithInterval overrides the poll interval, primarily for tests.
func WithInterval(interval time.Duration) Option {
	return func(d *Daemon) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// New builds a daemon over the configured signal directory.
func New(cfg *config.Config, announcer Announcer, opts ...Option) *Daemon {
	d := &Daemon{
		cfg:       cfg,
		channel:   signalfile.New(cfg.Paths.SignalDir),
		announcer: announcer,
		lock:      lockfile.New(cfg.LockFilePath()),
		interval:  cfg.PollInterval(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Uptime reports how long the loop has been running.
func (d *Daemon) Uptime() time.Duration {
	if d.started.IsZero() {
		return 0
	}
	return time.Since(d.started)
}

// Start acquires the instance lock and polls until the context ends. A held
// lock returns ErrAlreadyRunning without touching signal state.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.acquire(); err != nil {
		return err
	}
	defer d.release()

	d.started = time.Now()
	d.logger.Info("watcher started",
		logging.String("signal_dir", d.channel.Dir()),
		logging.Duration("poll_interval", d.interval))

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("watcher stopping", logging.Error(ctx.Err()))
			return nil
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

// acquire takes the flock and records the PID. Stale PID files left by a
// dead process are reclaimed first.
func (d *Daemon) acquire() error {
	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	pidPath := d.cfg.PIDFilePath()
	if pid, reclaimed, err := lockfile.ReclaimStale(pidPath); err == nil && reclaimed && pid > 0 {
		d.logger.Warn("reclaimed stale pid file", logging.Int("stale_pid", pid))
	}

	held, err := d.lock.TryAcquire()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !held {
		return ErrAlreadyRunning
	}
	if err := lockfile.WritePID(pidPath); err != nil {
		d.lock.Release()
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

func (d *Daemon) release() {
	if err := lockfile.RemovePID(d.cfg.PIDFilePath()); err != nil {
		d.logger.Warn("remove pid file failed", logging.Error(err))
	}
	if err := d.lock.Release(); err != nil {
		d.logger.Warn("release instance lock failed", logging.Error(err))
	}
}

// tick drains raised signals and announces each one. Announcement failures
// are logged and never stop the loop; a busy playback lock just drops the
// event, matching the marker coalescing model.
func (d *Daemon) tick(ctx context.Context) {
	drained, err := d.channel.Drain()
	if err != nil {
		d.logger.Warn("drain signals failed", logging.Error(err))
		return
	}

	for _, kind := range drained {
		result, err := d.announcer.Announce(ctx, announce.Request{Kind: string(kind)})
		switch {
		case err == nil:
			d.logger.Info("announcement played",
				logging.String(logging.FieldSignal, string(kind)),
				logging.String(logging.FieldBackend, result.Backend),
				logging.String(logging.FieldRequestID, result.ID),
				logging.Duration("announce_duration", result.Duration))
		case errors.Is(err, services.ErrBusy):
			d.logger.Info("announcement dropped while busy",
				logging.String(logging.FieldSignal, string(kind)),
				logging.String(logging.FieldRequestID, result.ID))
		default:
			d.logger.Error("announcement failed",
				logging.String(logging.FieldSignal, string(kind)),
				logging.String(logging.FieldRequestID, result.ID),
				logging.Error(err))
		}
	}
}
