package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"chime/internal/config"
	"chime/internal/hooks"
	"chime/internal/logging"
)

// newHookCommand wires the agent hook entry points. Hooks are best-effort:
// they always exit zero so a broken notification setup never fails the
// calling agent. Failures land in the hook log only.
func newHookCommand(ctx *commandContext) *cobra.Command {
	hookCmd := &cobra.Command{
		Use:   "hook",
		Short: "Agent hook entry points (read JSON from stdin)",
	}

	hookCmd.AddCommand(&cobra.Command{
		Use:          "notify",
		Short:        "Announce that the agent is waiting for input",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runHook(ctx, cmd.InOrStdin(), func(h *hooks.Hook, stdin io.Reader) error {
				return h.Notify(cmd.Context(), stdin)
			})
			return nil
		},
	})

	hookCmd.AddCommand(&cobra.Command{
		Use:          "stop",
		Short:        "Announce that the agent finished its task",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runHook(ctx, cmd.InOrStdin(), func(h *hooks.Hook, stdin io.Reader) error {
				return h.Stop(cmd.Context(), stdin)
			})
			return nil
		},
	})

	hookCmd.AddCommand(&cobra.Command{
		Use:          "summary",
		Short:        "Summarize and speak the agent's latest response",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runHook(ctx, cmd.InOrStdin(), func(h *hooks.Hook, stdin io.Reader) error {
				return h.Summary(cmd.Context(), stdin)
			})
			return nil
		},
	})

	return hookCmd
}

func runHook(ctx *commandContext, stdin io.Reader, fn func(*hooks.Hook, io.Reader) error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return
	}
	logger := hookLogger(cfg)
	hook := hooks.New(cfg, hooks.WithLogger(logger))
	if err := fn(hook, stdin); err != nil {
		logger.Warn("hook failed", logging.Error(err))
	}
}

// hookLogger writes to a shared hook log file. Hooks must stay quiet on
// stdout/stderr, so logging failures degrade to a no-op logger.
func hookLogger(cfg *config.Config) *slog.Logger {
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return logging.NewNop()
	}
	path := filepath.Join(cfg.Paths.LogDir, "hooks.log")
	logger, err := logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           "json",
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}
