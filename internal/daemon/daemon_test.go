package daemon

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"chime/internal/announce"
	"chime/internal/config"
	"chime/internal/services"
	"chime/internal/signalfile"
)

type recordingAnnouncer struct {
	mu       sync.Mutex
	requests []announce.Request
	err      error
}

func (r *recordingAnnouncer) Announce(_ context.Context, req announce.Request) (announce.Announcement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return announce.Announcement{ID: "test-id", Kind: req.Kind}, r.err
}

func (r *recordingAnnouncer) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, len(r.requests))
	for i, req := range r.requests {
		kinds[i] = req.Kind
	}
	return kinds
}

func testDaemonConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SignalDir = filepath.Join(root, "signals")
	cfg.Paths.CacheDir = filepath.Join(root, "cache")
	cfg.Paths.DataDir = filepath.Join(root, "data")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	return &cfg
}

func TestTickCoalescesRepeatedRaises(t *testing.T) {
	cfg := testDaemonConfig(t)
	announcer := &recordingAnnouncer{}
	d := New(cfg, announcer)

	channel := signalfile.New(cfg.Paths.SignalDir)
	for i := 0; i < 5; i++ {
		if err := channel.Raise(signalfile.KindNotify); err != nil {
			t.Fatalf("raise: %v", err)
		}
	}

	d.tick(context.Background())
	if got := announcer.kinds(); len(got) != 1 || got[0] != "notify" {
		t.Fatalf("expected one coalesced notify, got %v", got)
	}

	// A second tick sees nothing.
	d.tick(context.Background())
	if got := announcer.kinds(); len(got) != 1 {
		t.Fatalf("expected no further announcements, got %v", got)
	}
}

func TestTickDrainsNotifyBeforeStop(t *testing.T) {
	cfg := testDaemonConfig(t)
	announcer := &recordingAnnouncer{}
	d := New(cfg, announcer)

	channel := signalfile.New(cfg.Paths.SignalDir)
	if err := channel.Raise(signalfile.KindStop); err != nil {
		t.Fatalf("raise stop: %v", err)
	}
	if err := channel.Raise(signalfile.KindNotify); err != nil {
		t.Fatalf("raise notify: %v", err)
	}

	d.tick(context.Background())
	got := announcer.kinds()
	if len(got) != 2 || got[0] != "notify" || got[1] != "stop" {
		t.Fatalf("unexpected drain order: %v", got)
	}
}

func TestTickSurvivesAnnounceFailures(t *testing.T) {
	cfg := testDaemonConfig(t)
	announcer := &recordingAnnouncer{err: services.Wrap(services.ErrBusy, "", "play", "busy", nil)}
	d := New(cfg, announcer)

	channel := signalfile.New(cfg.Paths.SignalDir)
	if err := channel.Raise(signalfile.KindNotify); err != nil {
		t.Fatalf("raise: %v", err)
	}
	d.tick(context.Background())

	// The loop keeps going: a new raise on the next tick still announces.
	if err := channel.Raise(signalfile.KindNotify); err != nil {
		t.Fatalf("raise again: %v", err)
	}
	d.tick(context.Background())
	if got := announcer.kinds(); len(got) != 2 {
		t.Fatalf("expected two attempts, got %v", got)
	}
}

func TestSecondInstanceRefused(t *testing.T) {
	cfg := testDaemonConfig(t)
	first := New(cfg, &recordingAnnouncer{})
	if err := first.acquire(); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer first.release()

	second := New(cfg, &recordingAnnouncer{})
	err := second.acquire()
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	cfg := testDaemonConfig(t)
	announcer := &recordingAnnouncer{}
	d := New(cfg, announcer, WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	channel := signalfile.New(cfg.Paths.SignalDir)
	deadline := time.After(2 * time.Second)
	for len(announcer.kinds()) == 0 {
		if err := channel.Raise(signalfile.KindNotify); err != nil {
			t.Fatalf("raise: %v", err)
		}
		select {
		case <-deadline:
			t.Fatal("daemon never announced")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop on cancel")
	}
}
