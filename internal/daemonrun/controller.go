package daemonrun

import (
	"context"
	"errors"
	"os"
	"time"

	"chime/internal/announce"
	"chime/internal/config"
	"chime/internal/daemon"
	"chime/internal/history"
	"chime/internal/ipc"
	"chime/internal/signalfile"
)

// controller exposes the running daemon's state to the IPC server.
type controller struct {
	cfg       *config.Config
	daemon    *daemon.Daemon
	announcer *announce.Announcer
	history   *history.Store
	channel   *signalfile.Channel
	stop      context.CancelFunc
	version   string
}

var _ ipc.Controller = (*controller)(nil)

func (c *controller) Status(ctx context.Context) ipc.StatusResponse {
	resp := ipc.StatusResponse{
		Running:       true,
		PID:           os.Getpid(),
		UptimeSeconds: int64(c.daemon.Uptime().Seconds()),
		SignalDir:     c.cfg.Paths.SignalDir,
		CacheDir:      c.cfg.Paths.CacheDir,
		Version:       c.version,
	}
	if c.history != nil {
		resp.HistoryPath = c.history.Path()
	}
	if pending, err := c.channel.Pending(); err == nil {
		for _, kind := range pending {
			resp.Pending = append(resp.Pending, string(kind))
		}
	}
	return resp
}

func (c *controller) TestAnnounce(ctx context.Context, text string) (ipc.TestAnnounceResponse, error) {
	ann, err := c.announcer.Announce(ctx, announce.Request{Kind: announce.KindTest, Text: text})
	resp := ipc.TestAnnounceResponse{
		Played:   err == nil,
		Message:  ann.Message,
		Backend:  ann.Backend,
		CacheHit: ann.CacheHit,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp, nil
}

func (c *controller) HistoryList(ctx context.Context, limit int) ([]ipc.HistoryRecord, error) {
	if c.history == nil {
		return nil, errors.New("history is disabled")
	}
	records, err := c.history.List(ctx, limit)
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

func (c *controller) RequestStop() {
	c.stop()
}
