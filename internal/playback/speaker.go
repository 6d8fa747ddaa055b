package playback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	"chime/internal/chain"
)

// All in-process playback shares one device at a fixed rate; decoded
// streams are resampled to it.
const speakerSampleRate = beep.SampleRate(44100)

var (
	speakerInitOnce sync.Once
	speakerInitErr  error
)

func initSpeaker() error {
	speakerInitOnce.Do(func() {
		speakerInitErr = speaker.Init(speakerSampleRate, speakerSampleRate.N(100*time.Millisecond))
	})
	return speakerInitErr
}

// speakerBackend decodes and plays audio without any external binary. It
// sits last in the chain for machines with no player installed.
func speakerBackend(volume float64, timeout time.Duration) chain.Backend[bool] {
	return chain.Func[bool]{
		BackendName: "speaker",
		TimeoutVal:  timeout,
		InvokeFn: func(ctx context.Context, path string) (bool, error) {
			audio, err := os.ReadFile(path)
			if err != nil {
				return false, fmt.Errorf("speaker: read audio: %w", err)
			}
			return playInProcess(ctx, audio, volume)
		},
	}
}

func playInProcess(ctx context.Context, audio []byte, volume float64) (bool, error) {
	streamer, format, err := decode(audio)
	if err != nil {
		return false, err
	}
	defer streamer.Close()
	if err := initSpeaker(); err != nil {
		return false, fmt.Errorf("speaker: init: %w", err)
	}

	var stream beep.Streamer = beep.Resample(4, format.SampleRate, speakerSampleRate, streamer)
	if volume > 0 && volume < 1 {
		stream = &effects.Volume{Streamer: stream, Base: 2, Volume: math.Log2(volume)}
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(stream, beep.Callback(func() { close(done) })))
	select {
	case <-done:
		return true, nil
	case <-ctx.Done():
		speaker.Clear()
		return false, ctx.Err()
	}
}

// decode sniffs the container rather than trusting the file extension,
// since cached local-engine audio may be WAV inside an .mp3 name.
func decode(audio []byte) (beep.StreamSeekCloser, beep.Format, error) {
	switch {
	case len(audio) >= 4 && bytes.Equal(audio[:4], []byte("RIFF")):
		return wav.Decode(bytes.NewReader(audio))
	case len(audio) >= 4 && bytes.Equal(audio[:4], []byte("FORM")):
		return nil, beep.Format{}, errors.New("speaker: aiff audio not supported in-process")
	default:
		return mp3.Decode(io.NopCloser(bytes.NewReader(audio)))
	}
}
