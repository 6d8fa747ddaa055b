package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// TailOptions control one Tail pass over a daemon log file.
type TailOptions struct {
	// Offset is the byte position to resume from. Negative means start at
	// the end, returning at most Limit trailing lines.
	Offset int64
	// Limit caps the trailing lines returned when Offset is negative.
	// Zero returns no backlog, only the resume offset.
	Limit int
	// Follow makes an empty read wait up to Wait for new lines.
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

const (
	maxLineBytes = 1024 * 1024
	pollEvery    = 250 * time.Millisecond
)

// Tail reads daemon log lines. A missing file is not an error: the daemon
// may not have produced output yet, and in follow mode the caller keeps
// polling until it does.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	var (
		lines  []string
		offset int64
		err    error
	)
	if opts.Offset < 0 {
		lines, offset, err = tailEnd(path, opts.Limit)
	} else {
		lines, offset, err = readNew(path, opts.Offset)
	}
	if err != nil {
		return TailResult{}, err
	}
	if opts.Follow && len(lines) == 0 {
		return follow(ctx, path, offset, opts.Wait)
	}
	return TailResult{Lines: lines, Offset: offset}, nil
}

// tailEnd returns at most limit trailing lines and the end-of-file offset.
func tailEnd(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log: %w", err)
		}
		return nil, end, nil
	}

	lines, err := scanLines(file)
	if err != nil {
		return nil, 0, err
	}
	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log: %w", err)
	}
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines, end, nil
}

// readNew returns the complete lines added since offset. A shrunken file
// means the log was truncated or replaced; reading restarts from the top.
func readNew(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log: %w", err)
	}
	if offset > size {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log: %w", err)
	}

	lines, err := scanLines(file)
	if err != nil {
		return nil, 0, err
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log: %w", err)
	}
	return lines, end, nil
}

// follow polls for new lines until some arrive, wait elapses, or ctx ends.
func follow(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	if wait <= 0 {
		return TailResult{Offset: offset}, nil
	}
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()

	for {
		lines, next, err := readNew(path, offset)
		if err != nil {
			return TailResult{Offset: offset}, err
		}
		if len(lines) > 0 {
			return TailResult{Lines: lines, Offset: next}, nil
		}
		if next > 0 {
			offset = next
		}
		if time.Now().After(deadline) {
			return TailResult{Offset: offset}, nil
		}
		select {
		case <-ctx.Done():
			return TailResult{Offset: offset}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func scanLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return lines, nil
}
