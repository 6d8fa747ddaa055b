package signalfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Kind identifies a signal marker.
type Kind string

const (
	// KindNotify announces that the agent is waiting for input.
	KindNotify Kind = "notify"
	// KindStop announces that the agent finished its task.
	KindStop Kind = "stop"
)

// Kinds lists every recognized signal in drain order.
var Kinds = []Kind{KindNotify, KindStop}

// ParseKind maps a marker file name to its Kind.
func ParseKind(name string) (Kind, bool) {
	switch Kind(name) {
	case KindNotify:
		return KindNotify, true
	case KindStop:
		return KindStop, true
	default:
		return "", false
	}
}

// Channel is a signal directory handle.
type Channel struct {
	dir string
}

// New returns a channel rooted at dir. The directory is created lazily on
// the first Raise.
func New(dir string) *Channel {
	return &Channel{dir: dir}
}

// Dir returns the signal directory path.
func (c *Channel) Dir() string {
	return c.dir
}

// Path returns the marker location for a kind.
func (c *Channel) Path(kind Kind) string {
	return filepath.Join(c.dir, string(kind))
}

// Raise touches the marker for kind. Raising an already-raised kind is a
// no-op beyond refreshing the file timestamp.
func (c *Channel) Raise(kind Kind) error {
	if _, ok := ParseKind(string(kind)); !ok {
		return fmt.Errorf("unknown signal kind %q", kind)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create signal directory: %w", err)
	}
	stamp := time.Now().UTC().Format(time.RFC3339Nano) + "\n"
	if err := os.WriteFile(c.Path(kind), []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("raise %s signal: %w", kind, err)
	}
	return nil
}

// Drain consumes every raised marker and returns the kinds seen, in fixed
// drain order. Markers raised multiple times since the last drain appear
// once. Files that are not recognized markers are left untouched.
func (c *Channel) Drain() ([]Kind, error) {
	var drained []Kind
	for _, kind := range Kinds {
		err := os.Remove(c.Path(kind))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return drained, fmt.Errorf("consume %s signal: %w", kind, err)
		}
		drained = append(drained, kind)
	}
	return drained, nil
}

// Pending reports raised kinds without consuming them.
func (c *Channel) Pending() ([]Kind, error) {
	var pending []Kind
	for _, kind := range Kinds {
		if _, err := os.Stat(c.Path(kind)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return pending, fmt.Errorf("stat %s signal: %w", kind, err)
		}
		pending = append(pending, kind)
	}
	return pending, nil
}
