package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chime/internal/config"
	"chime/internal/history"
	"chime/internal/ipc"
	"chime/internal/logging"
	"chime/internal/testsupport"
)

type fakeController struct {
	status  ipc.StatusResponse
	records []ipc.HistoryRecord
	stopped bool
}

func (f *fakeController) Status(context.Context) ipc.StatusResponse { return f.status }

func (f *fakeController) TestAnnounce(_ context.Context, text string) (ipc.TestAnnounceResponse, error) {
	return ipc.TestAnnounceResponse{Played: true, Message: text}, nil
}

func (f *fakeController) HistoryList(_ context.Context, limit int) ([]ipc.HistoryRecord, error) {
	if limit > 0 && limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeController) RequestStop() { f.stopped = true }

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	socketPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SignalDir = filepath.Join(base, "signals")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Enabled = true
	cfgVal.History.Path = filepath.Join(base, "data", "history.db")
	cfg := &cfgVal

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		socketPath: filepath.Join(base, "chimed.sock"),
		baseDir:    base,
	}
}

func (env *cliTestEnv) startFakeServer(t *testing.T, ctrl ipc.Controller) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	srv, err := ipc.NewServer(ctx, env.socketPath, ctrl, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
signal_dir = %q
cache_dir = %q
data_dir = %q
log_dir = %q

[history]
enabled = %t
path = %q
`,
		cfg.Paths.SignalDir,
		cfg.Paths.CacheDir,
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.History.Enabled,
		cfg.History.Path,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIStatusAgainstRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	env.startFakeServer(t, &fakeController{
		status: ipc.StatusResponse{
			Running:       true,
			PID:           4242,
			UptimeSeconds: 61,
			SignalDir:     env.cfg.Paths.SignalDir,
			CacheDir:      env.cfg.Paths.CacheDir,
			HistoryPath:   env.cfg.History.Path,
			Pending:       []string{"notify"},
			Version:       "test",
		},
	})

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"[OK] running", "4242", "1m1s", env.cfg.Paths.SignalDir, "notify"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestCLIStatusOfflineFallback(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "[ERROR] not running") {
		t.Fatalf("expected offline status, got:\n%s", out)
	}
	if !strings.Contains(out, env.cfg.Paths.SignalDir) {
		t.Fatalf("offline status missing signal dir:\n%s", out)
	}
}

func TestCLIStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	env.startFakeServer(t, &fakeController{
		status: ipc.StatusResponse{Running: true, PID: 99},
	})

	out, _, err := runCLI(t, []string{"status", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	if !strings.Contains(out, `"running": true`) || !strings.Contains(out, `"pid": 99`) {
		t.Fatalf("unexpected JSON output:\n%s", out)
	}
}

func TestCLIHistoryViaDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	env.startFakeServer(t, &fakeController{
		records: []ipc.HistoryRecord{
			{ID: "r1", Kind: "stop", Message: "All done!", Backend: "elevenlabs", CacheHit: true, CreatedAt: "2026-08-28T10:00:00Z"},
		},
	})

	out, _, err := runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "All done!") || !strings.Contains(out, "elevenlabs") {
		t.Fatalf("history output missing record:\n%s", out)
	}
}

func TestCLIHistoryOfflineReadsStore(t *testing.T) {
	env := setupCLITestEnv(t)

	store := testsupport.MustOpenHistory(t, env.cfg)
	if _, err := store.Append(context.Background(), history.Record{Kind: "notify", Message: "Your agent needs your input"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	out, _, err := runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history offline: %v", err)
	}
	if !strings.Contains(out, "Your agent needs your input") {
		t.Fatalf("history offline missing record:\n%s", out)
	}
}

func TestCLICacheListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"cache", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	if !strings.Contains(out, "Cache is empty") {
		t.Fatalf("unexpected cache list output:\n%s", out)
	}
}

func TestCLIConfigInitWritesSample(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "fresh", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output:\n%s", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, ""); err == nil {
		t.Fatal("expected error for existing config without --overwrite")
	}
}

func TestCLIVersion(t *testing.T) {
	out, _, err := runCLI(t, []string{"version"}, filepath.Join(t.TempDir(), "none.sock"), "")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "chime") {
		t.Fatalf("unexpected version output: %q", out)
	}
}
