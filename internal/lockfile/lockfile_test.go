package lockfile_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"chime/internal/lockfile"
)

func TestTryAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "test.lock")
	lock := lockfile.New(path)

	held, err := lock.TryAcquire()
	if err != nil {
		t.Fatalf("TryAcquire returned error: %v", err)
	}
	if !held {
		t.Fatal("expected to acquire fresh lock")
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}

	held, err = lock.TryAcquire()
	if err != nil || !held {
		t.Fatalf("expected reacquire after release: held=%v err=%v", held, err)
	}
	_ = lock.Release()
}

func TestPIDRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chimed.pid")
	if err := lockfile.WritePID(path); err != nil {
		t.Fatalf("WritePID returned error: %v", err)
	}
	pid, err := lockfile.ReadPID(path)
	if err != nil {
		t.Fatalf("ReadPID returned error: %v", err)
	}
	if pid != os.Getpid() {
		t.Fatalf("pid = %d, want %d", pid, os.Getpid())
	}
	if err := lockfile.RemovePID(path); err != nil {
		t.Fatalf("RemovePID returned error: %v", err)
	}
	if pid, err := lockfile.ReadPID(path); err != nil || pid != 0 {
		t.Fatalf("expected zero pid after remove, got %d err=%v", pid, err)
	}
}

func TestReadPIDMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chimed.pid")
	if err := os.WriteFile(path, []byte("not-a-pid\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := lockfile.ReadPID(path); err == nil {
		t.Fatal("expected error for malformed pid file")
	}
}

func TestAlive(t *testing.T) {
	if !lockfile.Alive(os.Getpid()) {
		t.Fatal("current process must be alive")
	}
	if lockfile.Alive(0) || lockfile.Alive(-1) {
		t.Fatal("non-positive pids are never alive")
	}
}

func TestReclaimStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chimed.pid")

	// Live holder: record stays.
	if err := lockfile.WritePID(path); err != nil {
		t.Fatal(err)
	}
	pid, reclaimed, err := lockfile.ReclaimStale(path)
	if err != nil {
		t.Fatalf("ReclaimStale returned error: %v", err)
	}
	if reclaimed || pid != os.Getpid() {
		t.Fatalf("live record must not be reclaimed: pid=%d reclaimed=%v", pid, reclaimed)
	}

	// Dead holder: record reclaimed.
	cmd := exec.Command("/bin/sh", "-c", "exit 0")
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	deadPID := cmd.Process.Pid
	if err := os.WriteFile(path, []byte(strconv.Itoa(deadPID)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pid, reclaimed, err = lockfile.ReclaimStale(path)
	if err != nil {
		t.Fatalf("ReclaimStale returned error: %v", err)
	}
	if !reclaimed || pid != deadPID {
		t.Fatalf("dead record should be reclaimed: pid=%d reclaimed=%v", pid, reclaimed)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("reclaimed pid file should be removed")
	}

	// Malformed record: reclaimed.
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, reclaimed, err = lockfile.ReclaimStale(path)
	if err != nil || !reclaimed {
		t.Fatalf("malformed record should be reclaimed: reclaimed=%v err=%v", reclaimed, err)
	}
}
