package ttscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"chime/internal/logging"
	"chime/internal/services"
	"chime/internal/textutil"
)

const audioExtension = ".mp3"

// Key derives the cache key for a message and voice: SHA-256 over the
// normalized text and the voice identifier.
func Key(text, voice string) string {
	normalized := textutil.Normalize(text)
	h := sha256.New()
	h.Write([]byte(normalized))
	h.Write([]byte{0})
	h.Write([]byte(voice))
	return hex.EncodeToString(h.Sum(nil))
}

// Entry describes one cached audio file.
type Entry struct {
	Voice     string    `json:"voice"`
	Key       string    `json:"key"`
	Text      string    `json:"text"`
	Digest    string    `json:"digest"`
	Path      string    `json:"-"`
	Size      int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type sidecar struct {
	Text      string    `json:"text"`
	Voice     string    `json:"voice"`
	Digest    string    `json:"digest"`
	CreatedAt time.Time `json:"created_at"`
}

// Cache is a content-addressed audio store rooted at a directory.
type Cache struct {
	dir    string
	logger *slog.Logger
}

// New returns a cache rooted at dir. Directories are created lazily on the
// first write.
func New(dir string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cache{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "ttscache"),
	}
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the audio location for a message and voice.
func (c *Cache) Path(text, voice string) string {
	return filepath.Join(c.dir, textutil.SanitizeToken(voice), Key(text, voice)+audioExtension)
}

func (c *Cache) sidecarPath(audioPath string) string {
	return strings.TrimSuffix(audioPath, audioExtension) + ".json"
}

// Lookup returns cached audio for the message, if present. A stored entry
// whose sidecar text disagrees with the request, or whose audio no longer
// matches its recorded digest, yields an integrity error.
func (c *Cache) Lookup(text, voice string) ([]byte, bool, error) {
	audioPath := c.Path(text, voice)
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	meta, err := c.readSidecar(audioPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Entry predates sidecars; serve it unverified.
			c.logger.Warn("cache entry missing sidecar",
				logging.String("path", audioPath))
			return audio, true, nil
		}
		return nil, false, err
	}

	if textutil.Normalize(meta.Text) != textutil.Normalize(text) {
		return nil, false, services.Wrap(services.ErrIntegrity, "ttscache", "lookup",
			fmt.Sprintf("key collision at %s", audioPath), nil)
	}
	if digest(audio) != meta.Digest {
		return nil, false, services.Wrap(services.ErrIntegrity, "ttscache", "lookup",
			fmt.Sprintf("audio digest mismatch at %s", audioPath), nil)
	}
	return audio, true, nil
}

// GetOrCreate returns cached audio, filling the cache through synth on a
// miss. The hit flag reports whether the audio came from the cache; when it
// is true synth was never invoked. Concurrent identical fills are tolerated:
// the first O_EXCL create wins and later writers adopt the stored entry.
func (c *Cache) GetOrCreate(ctx context.Context, text, voice string, synth func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	audio, hit, err := c.Lookup(text, voice)
	if err != nil {
		return nil, false, err
	}
	if hit {
		return audio, true, nil
	}

	audio, err = synth(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(audio) == 0 {
		return nil, false, services.Wrap(services.ErrBackendFailure, "ttscache", "fill", "synthesis produced no audio", nil)
	}

	audioPath := c.Path(text, voice)
	if err := os.MkdirAll(filepath.Dir(audioPath), 0o755); err != nil {
		return nil, false, fmt.Errorf("create cache directory: %w", err)
	}

	file, err := os.OpenFile(audioPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			// Lost the race; the winner's entry is authoritative.
			stored, hit, lookupErr := c.Lookup(text, voice)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			if hit {
				return stored, false, nil
			}
		}
		return nil, false, fmt.Errorf("create cache entry: %w", err)
	}
	if _, err := file.Write(audio); err != nil {
		file.Close()
		_ = os.Remove(audioPath)
		return nil, false, fmt.Errorf("write cache entry: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(audioPath)
		return nil, false, fmt.Errorf("close cache entry: %w", err)
	}

	if err := c.writeSidecar(audioPath, sidecar{
		Text:      textutil.Normalize(text),
		Voice:     voice,
		Digest:    digest(audio),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, false, err
	}

	c.logger.Debug("cached synthesized audio",
		logging.String(logging.FieldVoice, voice),
		logging.String("key", Key(text, voice)),
		logging.Int("bytes", len(audio)))
	return audio, false, nil
}

// Entries walks the cache and returns every entry, newest first. Entries
// without sidecars are included with empty text.
func (c *Cache) Entries() ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, audioExtension) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entry := Entry{
			Voice:     filepath.Base(filepath.Dir(path)),
			Key:       strings.TrimSuffix(filepath.Base(path), audioExtension),
			Path:      path,
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		}
		if meta, err := c.readSidecar(path); err == nil {
			entry.Text = meta.Text
			entry.Digest = meta.Digest
			entry.Voice = meta.Voice
			entry.CreatedAt = meta.CreatedAt
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk cache: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Fault describes a failed verification of one entry.
type Fault struct {
	Path   string
	Reason string
}

// Verify checks every entry's audio bytes against its sidecar digest and its
// key against its recorded text. It reports faults rather than repairing
// them.
func (c *Cache) Verify() ([]Fault, error) {
	entries, err := c.Entries()
	if err != nil {
		return nil, err
	}
	var faults []Fault
	for _, entry := range entries {
		if entry.Text == "" && entry.Digest == "" {
			faults = append(faults, Fault{Path: entry.Path, Reason: "missing sidecar"})
			continue
		}
		audio, err := os.ReadFile(entry.Path)
		if err != nil {
			faults = append(faults, Fault{Path: entry.Path, Reason: fmt.Sprintf("unreadable: %v", err)})
			continue
		}
		if digest(audio) != entry.Digest {
			faults = append(faults, Fault{Path: entry.Path, Reason: "audio digest mismatch"})
			continue
		}
		if Key(entry.Text, entry.Voice) != entry.Key {
			faults = append(faults, Fault{Path: entry.Path, Reason: "key does not match recorded text"})
		}
	}
	return faults, nil
}

func (c *Cache) readSidecar(audioPath string) (sidecar, error) {
	data, err := os.ReadFile(c.sidecarPath(audioPath))
	if err != nil {
		return sidecar{}, err
	}
	var meta sidecar
	if err := json.Unmarshal(data, &meta); err != nil {
		return sidecar{}, fmt.Errorf("parse sidecar for %s: %w", audioPath, err)
	}
	return meta, nil
}

func (c *Cache) writeSidecar(audioPath string, meta sidecar) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	path := c.sidecarPath(audioPath)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("persist sidecar: %w", err)
	}
	return nil
}

func digest(audio []byte) string {
	sum := sha256.Sum256(audio)
	return hex.EncodeToString(sum[:])
}
