package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"chime/internal/messages"
	"chime/internal/speech"
	"chime/internal/ttscache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and warm the synthesized audio cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheVerifyCommand(ctx))
	cacheCmd.AddCommand(newCachePopulateCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List cached audio entries",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			entries, err := ttscache.New(cfg.Paths.CacheDir, nil).Entries()
			if err != nil {
				return fmt.Errorf("read cache: %w", err)
			}
			stdout := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(stdout, "Cache is empty")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			var total int64
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.Voice,
					truncateText(entry.Text, 48),
					formatSize(entry.Size),
					entry.CreatedAt.Local().Format(time.DateTime),
				})
				total += entry.Size
			}
			table := renderTable(
				[]string{"Voice", "Text", "Size", "Created"},
				rows,
				3,
			)
			fmt.Fprintln(stdout, table)
			fmt.Fprintf(stdout, "%d entries, %s total\n", len(entries), formatSize(total))
			return nil
		},
	}
}

func newCacheVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:          "verify",
		Short:        "Check cached audio against recorded digests",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			cache := ttscache.New(cfg.Paths.CacheDir, nil)
			entries, err := cache.Entries()
			if err != nil {
				return fmt.Errorf("read cache: %w", err)
			}
			faults, err := cache.Verify()
			if err != nil {
				return fmt.Errorf("verify cache: %w", err)
			}
			stdout := cmd.OutOrStdout()
			if len(faults) == 0 {
				fmt.Fprintf(stdout, "Cache verified: %d entries, no faults\n", len(entries))
				return nil
			}
			for _, fault := range faults {
				fmt.Fprintf(stdout, "FAULT %s: %s\n", fault.Path, fault.Reason)
			}
			return fmt.Errorf("cache verification found %d faults", len(faults))
		},
	}
}

func newCachePopulateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:          "populate",
		Short:        "Pre-synthesize every static announcement phrase",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			cache := ttscache.New(cfg.Paths.CacheDir, nil)
			renderer := speech.FromConfig(cfg, cache)

			phrases := staticPhrases(cfg.Engineer.Name)
			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Generating cache for %d phrases...\n", len(phrases))

			var cached, generated, failed int
			for i, phrase := range phrases {
				result, err := renderer.Render(cmd.Context(), phrase)
				switch {
				case err != nil:
					failed++
					fmt.Fprintf(stdout, "[%d/%d] FAILED: %s (%v)\n", i+1, len(phrases), truncateText(phrase, 48), err)
				case result.CacheHit:
					cached++
					fmt.Fprintf(stdout, "[%d/%d] cached: %s\n", i+1, len(phrases), truncateText(phrase, 48))
				default:
					generated++
					fmt.Fprintf(stdout, "[%d/%d] generated (%s): %s\n", i+1, len(phrases), result.Backend, truncateText(phrase, 48))
				}
			}

			fmt.Fprintf(stdout, "\n%d generated, %d already cached, %d failed\n", generated, cached, failed)
			if failed > 0 {
				return fmt.Errorf("%d phrases failed to synthesize", failed)
			}
			return nil
		},
	}
}

// staticPhrases returns every phrase the hooks can speak without the
// summarizer, so a populated cache covers all offline announcements.
func staticPhrases(engineerName string) []string {
	phrases := []string{messages.DefaultNotification}
	if engineerName != "" {
		phrases = append(phrases, engineerName+", your agent needs your input")
	}
	return append(phrases, messages.CompletionPool()...)
}

func truncateText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
