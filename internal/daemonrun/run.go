// Package daemonrun assembles and runs the chimed daemon process: logger,
// history store, announcement pipeline, watcher loop, and IPC server.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"chime/internal/announce"
	"chime/internal/config"
	"chime/internal/daemon"
	"chime/internal/history"
	"chime/internal/ipc"
	"chime/internal/logging"
	"chime/internal/messages"
	"chime/internal/playback"
	"chime/internal/signalfile"
	"chime/internal/speech"
	"chime/internal/summary"
	"chime/internal/ttscache"
)

// startupGrace is how long Run waits for the watcher to claim the instance
// lock before standing up the IPC socket. A second instance must fail fast
// without disturbing the live daemon's socket.
const startupGrace = 250 * time.Millisecond

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides the configured log level when set.
	LogLevel string
	// Version is reported in status responses.
	Version string
}

// Run starts the chimed runtime loop and blocks until shutdown.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// RequestStop over IPC cancels the same context the signals do.
	runCtx, stop := context.WithCancel(signalCtx)
	defer stop()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("chime-%s.log", runID))

	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update chime.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "chime-*.log", Exclude: []string{logPath}},
	)

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			// Announcements must keep working without a history store.
			logger.Warn("open history store failed; continuing without history",
				logging.Error(err),
				logging.String(logging.FieldEventType, "history_open_failed"),
				logging.String(logging.FieldErrorHint, "check history.path and data directory permissions"),
				logging.String(logging.FieldImpact, "announcement log is disabled for this run"),
			)
			store = nil
		} else {
			defer store.Close()
		}
	}

	selector := messages.NewSelector(
		cfg.Engineer.Name,
		cfg.Messages.PersonalizationProbability,
		cfg.Messages.SummarizerProbability,
	)
	cache := ttscache.New(cfg.Paths.CacheDir, logger)
	renderer := speech.FromConfig(cfg, cache, speech.WithLogger(logger))
	player := playback.New(cfg.Playback, cfg.PlaybackLockPath(), playback.WithLogger(logger))

	annOpts := []announce.Option{
		announce.WithLogger(logging.NewComponentLogger(logger, "announce")),
	}
	if cfg.Summarizer.Enabled {
		annOpts = append(annOpts, announce.WithSummarizer(
			summary.FromConfig(cfg.Summarizer, selector.Completion, summary.WithLogger(logger)),
		))
	}
	if store != nil {
		annOpts = append(annOpts, announce.WithRecorder(store))
	}
	announcer := announce.New(selector, renderer, player, annOpts...)

	d := daemon.New(cfg, announcer, daemon.WithLogger(logger))

	daemonErr := make(chan error, 1)
	go func() { daemonErr <- d.Start(runCtx) }()

	select {
	case err := <-daemonErr:
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return err
		}
		if err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		return nil
	case <-time.After(startupGrace):
	}

	ctrl := &controller{
		cfg:       cfg,
		daemon:    d,
		announcer: announcer,
		history:   store,
		channel:   signalfile.New(cfg.Paths.SignalDir),
		stop:      stop,
		version:   opts.Version,
	}
	ipcServer, err := ipc.NewServer(runCtx, cfg.SocketPath(), ctrl, logger)
	if err != nil {
		stop()
		<-daemonErr
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	err = <-daemonErr
	logger.Info("chimed shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return err
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "chime.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}
