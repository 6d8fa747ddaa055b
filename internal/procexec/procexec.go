package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// ErrTimedOut indicates a supervised process exceeded its deadline and was
// terminated.
var ErrTimedOut = errors.New("process timed out")

// DefaultGrace is the window between SIGTERM and SIGKILL during timeout
// termination.
const DefaultGrace = 2 * time.Second

// Spec describes a supervised command invocation.
type Spec struct {
	Command string
	Args    []string
	Dir     string
	// Env is the complete child environment. Build it with Environ; the
	// parent environment is never inherited implicitly.
	Env   []string
	Stdin io.Reader
	// Timeout bounds the run. Zero means the context alone governs.
	Timeout time.Duration
	// Grace overrides DefaultGrace when positive.
	Grace time.Duration
}

// Result captures the outcome of a supervised run.
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Run starts the command in its own process group and waits for completion.
// On deadline the whole group receives SIGTERM, then SIGKILL after the grace
// window. A non-zero exit is returned as an error with trimmed stderr
// attached.
func Run(ctx context.Context, spec Spec) (Result, error) {
	if strings.TrimSpace(spec.Command) == "" {
		return Result{}, errors.New("command required")
	}

	runCtx := ctx
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.Command(spec.Command, spec.Args...) //nolint:gosec
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	if cmd.Env == nil {
		cmd.Env = []string{}
	}
	cmd.Stdin = spec.Stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start %s: %w", spec.Command, err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
	}()

	grace := spec.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}

	var err error
	timedOut := false
	select {
	case err = <-waitErr:
	case <-runCtx.Done():
		timedOut = true
		// Signal the group so grandchildren cannot outlive the timeout.
		_ = unix.Kill(-cmd.Process.Pid, unix.SIGTERM)
		select {
		case err = <-waitErr:
		case <-time.After(grace):
			_ = unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
			err = <-waitErr
		}
	}

	result := Result{
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(started),
	}
	if timedOut {
		return result, fmt.Errorf("%s after %s: %w", spec.Command, result.Duration.Round(time.Millisecond), ErrTimedOut)
	}
	if err != nil {
		if result.Stderr != "" {
			return result, fmt.Errorf("%s: %w: %s", spec.Command, err, result.Stderr)
		}
		return result, fmt.Errorf("%s: %w", spec.Command, err)
	}
	return result, nil
}

// Detach starts a command and releases it without waiting. Output is
// discarded. Returns the child PID.
func Detach(command string, args ...string) (int, error) {
	if strings.TrimSpace(command) == "" {
		return 0, errors.New("command required")
	}
	cmd := exec.Command(command, args...) //nolint:gosec
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("launch %s: %w", command, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("release %s: %w", command, err)
	}
	return pid, nil
}

// LookPath reports the resolved path of an executable and whether it exists.
func LookPath(name string) (string, bool) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return path, true
}

// Environ assembles a minimal child environment: the named parent variables
// that are set, plus explicit extra KEY=VALUE entries. Extras win on
// collision.
func Environ(keep []string, extra map[string]string) []string {
	env := make([]string, 0, len(keep)+len(extra))
	for _, name := range keep {
		if _, overridden := extra[name]; overridden {
			continue
		}
		if value, ok := os.LookupEnv(name); ok {
			env = append(env, name+"="+value)
		}
	}
	for name, value := range extra {
		env = append(env, name+"="+value)
	}
	return env
}
