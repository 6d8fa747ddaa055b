// Package localvoice synthesizes speech with an on-machine engine such as
// say or espeak, for use when no hosted synthesis service is reachable.
package localvoice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chime/internal/procexec"
)

const defaultTimeout = 10 * time.Second

// Engines that can write synthesized audio to a file, in preference order.
var knownEngines = []string{"say", "espeak-ng", "espeak"}

// Detect returns the first known speech engine found on PATH.
func Detect() (string, bool) {
	for _, name := range knownEngines {
		if _, ok := procexec.LookPath(name); ok {
			return name, true
		}
	}
	return "", false
}

// Synthesizer drives a local text-to-speech command.
type Synthesizer struct {
	command string
	path    string
	voice   string
	timeout time.Duration
}

// New resolves the given engine command and prepares a synthesizer. An
// empty command triggers auto-detection. The returned synthesizer is nil
// with ok=false when no usable engine exists.
func New(command, voice string, timeout time.Duration) (*Synthesizer, bool) {
	command = strings.TrimSpace(command)
	if command == "" {
		detected, ok := Detect()
		if !ok {
			return nil, false
		}
		command = detected
	}
	path, ok := procexec.LookPath(command)
	if !ok {
		return nil, false
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Synthesizer{
		command: filepath.Base(command),
		path:    path,
		voice:   strings.TrimSpace(voice),
		timeout: timeout,
	}, true
}

// Command returns the engine name in use.
func (s *Synthesizer) Command() string {
	if s == nil {
		return ""
	}
	return s.command
}

// Synthesize renders text to audio bytes by asking the engine to write a
// temporary WAV file. say defaults to AIFF, so it is forced to linear PCM
// in a WAV container; espeak writes WAV natively.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s == nil {
		return nil, errors.New("localvoice: no engine available")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("localvoice: text required")
	}

	outFile, err := os.CreateTemp("", "chime-voice-*.wav")
	if err != nil {
		return nil, fmt.Errorf("localvoice: temp file: %w", err)
	}
	outPath := outFile.Name()
	outFile.Close()
	defer os.Remove(outPath)

	spec := procexec.Spec{
		Command: s.path,
		Args:    s.buildArgs(outPath, text),
		Timeout: s.timeout,
	}
	if _, err := procexec.Run(ctx, spec); err != nil {
		return nil, fmt.Errorf("localvoice: %s: %w", s.command, err)
	}

	audio, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("localvoice: read output: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("localvoice: %s produced no audio", s.command)
	}
	return audio, nil
}

func (s *Synthesizer) buildArgs(outPath, text string) []string {
	var args []string
	switch s.command {
	case "say":
		if s.voice != "" {
			args = append(args, "-v", s.voice)
		}
		// say writes AIFF unless told otherwise.
		args = append(args, "-o", outPath, "--data-format=LEI16@22050", text)
	default:
		// espeak and espeak-ng share a flag surface.
		if s.voice != "" {
			args = append(args, "-v", s.voice)
		}
		args = append(args, "-w", outPath, text)
	}
	return args
}
