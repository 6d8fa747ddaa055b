package speech_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"chime/internal/chain"
	"chime/internal/services"
	"chime/internal/speech"
	"chime/internal/ttscache"
)

func audioBackend(name, voice string, audio []byte, err error, calls *int) speech.Backend {
	return speech.Backend{
		Voice: voice,
		Backend: chain.Func[[]byte]{
			BackendName: name,
			InvokeFn: func(context.Context, string) ([]byte, error) {
				if calls != nil {
					*calls++
				}
				return audio, err
			},
		},
	}
}

func newCache(t *testing.T) *ttscache.Cache {
	t.Helper()
	return ttscache.New(t.TempDir(), nil)
}

func TestRenderSynthesizesAndCaches(t *testing.T) {
	cache := newCache(t)
	var calls int
	synth := speech.New([]speech.Backend{
		audioBackend("primary", "voice-a", []byte("mp3-data"), nil, &calls),
	}, cache)

	first, err := synth.Render(context.Background(), "Work complete!")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if first.CacheHit {
		t.Fatal("first render must not be a cache hit")
	}
	if first.Backend != "primary" || first.Voice != "voice-a" {
		t.Fatalf("unexpected provenance: %+v", first)
	}
	if !bytes.Equal(first.Audio, []byte("mp3-data")) {
		t.Fatalf("unexpected audio: %q", first.Audio)
	}

	second, err := synth.Render(context.Background(), "Work complete!")
	if err != nil {
		t.Fatalf("second Render returned error: %v", err)
	}
	if !second.CacheHit {
		t.Fatal("second render should hit the cache")
	}
	if !bytes.Equal(second.Audio, first.Audio) {
		t.Fatal("cached audio differs from synthesized audio")
	}
	if calls != 1 {
		t.Fatalf("expected one synthesis call, got %d", calls)
	}
}

func TestRenderFallsThroughToLowerBackend(t *testing.T) {
	cache := newCache(t)
	synth := speech.New([]speech.Backend{
		audioBackend("primary", "voice-a", nil, errors.New("service down"), nil),
		audioBackend("secondary", "voice-b", []byte("backup-audio"), nil, nil),
	}, cache)

	result, err := synth.Render(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if result.Backend != "secondary" || result.Voice != "voice-b" {
		t.Fatalf("unexpected provenance: %+v", result)
	}

	// The stored entry must live under the producing backend's voice.
	if _, hit, err := cache.Lookup("hello", "voice-b"); err != nil || !hit {
		t.Fatalf("expected cache entry under voice-b, hit=%v err=%v", hit, err)
	}
	if _, hit, _ := cache.Lookup("hello", "voice-a"); hit {
		t.Fatal("no entry should exist under the failed backend's voice")
	}
}

func TestRenderServesCacheForIneligibleBackend(t *testing.T) {
	cache := newCache(t)
	seeded := speech.New([]speech.Backend{
		audioBackend("primary", "voice-a", []byte("seeded-audio"), nil, nil),
	}, cache)
	if _, err := seeded.Render(context.Background(), "known phrase"); err != nil {
		t.Fatalf("seed render: %v", err)
	}

	// Same cache, but the backend is no longer eligible (credentials gone).
	var calls int
	revoked := speech.New([]speech.Backend{{
		Voice: "voice-a",
		Backend: chain.Func[[]byte]{
			BackendName: "primary",
			EligibleFn:  func(context.Context) bool { return false },
			InvokeFn: func(context.Context, string) ([]byte, error) {
				calls++
				return []byte("fresh"), nil
			},
		},
	}}, cache)

	result, err := revoked.Render(context.Background(), "known phrase")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !result.CacheHit {
		t.Fatal("expected cached audio despite ineligible backend")
	}
	if !bytes.Equal(result.Audio, []byte("seeded-audio")) {
		t.Fatalf("unexpected audio: %q", result.Audio)
	}
	if calls != 0 {
		t.Fatalf("expected no synthesis calls, got %d", calls)
	}
}

func TestRenderExhaustionReturnsError(t *testing.T) {
	cache := newCache(t)
	synth := speech.New([]speech.Backend{
		audioBackend("primary", "voice-a", nil, errors.New("down"), nil),
		audioBackend("secondary", "voice-b", nil, errors.New("also down"), nil),
	}, cache)

	_, err := synth.Render(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error on chain exhaustion")
	}
	if !errors.Is(err, services.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestRenderWhitespaceVariantsHitSameEntry(t *testing.T) {
	cache := newCache(t)
	var calls int
	synth := speech.New([]speech.Backend{
		audioBackend("primary", "voice-a", []byte("audio"), nil, &calls),
	}, cache)

	if _, err := synth.Render(context.Background(), "Work  complete!"); err != nil {
		t.Fatalf("first render: %v", err)
	}
	result, err := synth.Render(context.Background(), "  Work complete! ")
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !result.CacheHit {
		t.Fatal("normalized variant should hit the cache")
	}
	if calls != 1 {
		t.Fatalf("expected one synthesis call, got %d", calls)
	}
}
