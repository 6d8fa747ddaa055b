package playback_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"chime/internal/chain"
	"chime/internal/config"
	"chime/internal/lockfile"
	"chime/internal/playback"
	"chime/internal/services"
)

// installStubPlayer places a fake player binary on PATH that records its
// arguments to capturePath.
func installStubPlayer(t *testing.T, name, capturePath string, exitCode int) {
	t.Helper()
	dir := t.TempDir()
	script := "#!/bin/sh\nprintf '%s' \"$*\" > " + capturePath + "\nexit " + strconv.Itoa(exitCode) + "\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
		t.Fatalf("write stub player: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func testConfig(players ...string) config.Playback {
	return config.Playback{Players: players, Volume: 0.8, TimeoutSeconds: 5}
}

func TestPlayRunsConfiguredPlayer(t *testing.T) {
	capture := filepath.Join(t.TempDir(), "args")
	installStubPlayer(t, "fakeplay", capture, 0)

	player := playback.New(testConfig("fakeplay"), filepath.Join(t.TempDir(), "playback.lock"))
	result, err := player.Play(context.Background(), []byte("audio-bytes"))
	if err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if result.Player != "fakeplay" {
		t.Fatalf("unexpected player: %q", result.Player)
	}

	args, err := os.ReadFile(capture)
	if err != nil {
		t.Fatalf("read capture: %v", err)
	}
	if !strings.Contains(string(args), ".mp3") {
		t.Fatalf("expected audio path in args, got %q", args)
	}
}

func TestPlayVolumeArgs(t *testing.T) {
	capture := filepath.Join(t.TempDir(), "args")
	installStubPlayer(t, "afplay", capture, 0)

	player := playback.New(testConfig("afplay"), filepath.Join(t.TempDir(), "playback.lock"))
	if _, err := player.Play(context.Background(), []byte("audio")); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	args, err := os.ReadFile(capture)
	if err != nil {
		t.Fatalf("read capture: %v", err)
	}
	if !strings.HasPrefix(string(args), "-v 0.80 ") {
		t.Fatalf("expected afplay volume flag, got %q", args)
	}
}

func TestPlayFallsThroughFailingPlayer(t *testing.T) {
	brokenCapture := filepath.Join(t.TempDir(), "broken-args")
	workingCapture := filepath.Join(t.TempDir(), "working-args")
	installStubPlayer(t, "broken", brokenCapture, 1)
	installStubPlayer(t, "working", workingCapture, 0)

	player := playback.New(testConfig("broken", "working"), filepath.Join(t.TempDir(), "playback.lock"))
	result, err := player.Play(context.Background(), []byte("audio"))
	if err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if result.Player != "working" {
		t.Fatalf("unexpected player: %q", result.Player)
	}
}

func TestPlayBusyLockDropsAnnouncement(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "playback.lock")
	holder := lockfile.New(lockPath)
	held, err := holder.TryAcquire()
	if err != nil || !held {
		t.Fatalf("setup lock: held=%v err=%v", held, err)
	}
	defer holder.Release()

	var calls int
	player := playback.New(testConfig(), lockPath, playback.WithBackends([]chain.Backend[bool]{
		chain.Func[bool]{
			BackendName: "stub",
			InvokeFn: func(context.Context, string) (bool, error) {
				calls++
				return true, nil
			},
		},
	}))

	_, err = player.Play(context.Background(), []byte("audio"))
	if !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("busy playback must not invoke any backend, got %d calls", calls)
	}
}

func TestPlayExhaustionReturnsError(t *testing.T) {
	player := playback.New(testConfig(), filepath.Join(t.TempDir(), "playback.lock"),
		playback.WithBackends([]chain.Backend[bool]{
			chain.Func[bool]{
				BackendName: "stub",
				InvokeFn: func(context.Context, string) (bool, error) {
					return false, errors.New("device unavailable")
				},
			},
		}))

	_, err := player.Play(context.Background(), []byte("audio"))
	if !errors.Is(err, services.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestPlayRejectsEmptyAudio(t *testing.T) {
	player := playback.New(testConfig(), filepath.Join(t.TempDir(), "playback.lock"),
		playback.WithBackends([]chain.Backend[bool]{
			chain.Func[bool]{
				BackendName: "stub",
				InvokeFn:    func(context.Context, string) (bool, error) { return true, nil },
			},
		}))

	if _, err := player.Play(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestLockReleasedAfterPlay(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "playback.lock")
	player := playback.New(testConfig(), lockPath, playback.WithBackends([]chain.Backend[bool]{
		chain.Func[bool]{
			BackendName: "stub",
			InvokeFn:    func(context.Context, string) (bool, error) { return true, nil },
		},
	}))

	if _, err := player.Play(context.Background(), []byte("audio")); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}

	probe := lockfile.New(lockPath)
	held, err := probe.TryAcquire()
	if err != nil {
		t.Fatalf("probe lock: %v", err)
	}
	if !held {
		t.Fatal("playback lock should be free after Play returns")
	}
	probe.Release()
}
