package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"chime/internal/history"
	"chime/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:          "history",
		Short:        "Show recent announcements",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := fetchHistory(cmd.Context(), ctx, limit)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(stdout, "No announcements recorded")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				outcome := "ok"
				if record.Error != "" {
					outcome = truncateText(record.Error, 32)
				}
				rows = append(rows, []string{
					formatCreatedAt(record.CreatedAt),
					record.Kind,
					truncateText(record.Message, 48),
					record.Backend,
					yesNo(record.CacheHit),
					outcome,
				})
			}
			table := renderTable(
				[]string{"When", "Kind", "Message", "Backend", "Cached", "Outcome"},
				rows,
			)
			fmt.Fprintln(stdout, table)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to show (0 for all)")
	return cmd
}

// fetchHistory prefers the daemon's view and falls back to reading the
// store directly when no daemon is running.
func fetchHistory(cmdCtx context.Context, ctx *commandContext, limit int) ([]ipc.HistoryRecord, error) {
	if client, err := ctx.dialClient(); err == nil {
		defer client.Close()
		resp, err := client.HistoryList(limit)
		if err != nil {
			return nil, err
		}
		return resp.Records, nil
	}

	cfg := ctx.configValue()
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("history is disabled; enable [history] in the configuration")
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	records, err := store.List(cmdCtx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ipc.HistoryRecord, 0, len(records))
	for _, record := range records {
		out = append(out, ipc.HistoryRecord{
			ID:           record.ID,
			Kind:         record.Kind,
			Message:      record.Message,
			Backend:      record.Backend,
			Voice:        record.Voice,
			CacheHit:     record.CacheHit,
			Fallback:     record.Fallback,
			LLMGenerated: record.LLMGenerated,
			Error:        record.ErrorMessage,
			CreatedAt:    record.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

func formatCreatedAt(value string) string {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return parsed.Local().Format(time.DateTime)
}
