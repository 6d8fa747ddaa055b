package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chime/internal/playback"
	"chime/internal/services"
	"chime/internal/speech"
	"chime/internal/ttscache"
)

const sayBudget = 30 * time.Second

func newSayCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:          "say TEXT...",
		Short:        "Synthesize and play a phrase through the backend chain",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return errors.New("nothing to say")
			}
			cfg := ctx.configValue()

			runCtx, cancel := context.WithTimeout(cmd.Context(), sayBudget)
			defer cancel()

			cache := ttscache.New(cfg.Paths.CacheDir, nil)
			renderer := speech.FromConfig(cfg, cache)
			rendered, err := renderer.Render(runCtx, text)
			if err != nil {
				return fmt.Errorf("synthesize: %w", err)
			}

			player := playback.New(cfg.Playback, cfg.PlaybackLockPath())
			if _, err := player.Play(runCtx, rendered.Audio); err != nil {
				if errors.Is(err, services.ErrBusy) {
					fmt.Fprintln(cmd.OutOrStdout(), "Another announcement is already playing")
					return nil
				}
				return fmt.Errorf("play: %w", err)
			}

			source := "synthesized"
			if rendered.CacheHit {
				source = "cached"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Played (%s, backend: %s)\n", source, rendered.Backend)
			return nil
		},
	}
}
