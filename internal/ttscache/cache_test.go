package ttscache_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"chime/internal/services"
	"chime/internal/ttscache"
)

func fillWith(calls *int, audio []byte) func(context.Context) ([]byte, error) {
	return func(context.Context) ([]byte, error) {
		*calls++
		return audio, nil
	}
}

func TestGetOrCreateFillsOnceAndHitsAfter(t *testing.T) {
	cache := ttscache.New(t.TempDir(), nil)
	audio := []byte("mp3-bytes")
	calls := 0

	got, hit, err := cache.GetOrCreate(context.Background(), "Work complete!", "rachel", fillWith(&calls, audio))
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	if hit {
		t.Fatal("first call must be a miss")
	}
	if !bytes.Equal(got, audio) {
		t.Fatalf("unexpected audio: %q", got)
	}

	again, hit, err := cache.GetOrCreate(context.Background(), "Work complete!", "rachel", fillWith(&calls, []byte("different")))
	if err != nil {
		t.Fatalf("second GetOrCreate returned error: %v", err)
	}
	if !hit {
		t.Fatal("second call must be a hit")
	}
	if !bytes.Equal(again, audio) {
		t.Fatal("hit must return byte-identical audio")
	}
	if calls != 1 {
		t.Fatalf("synthesis must run exactly once, ran %d times", calls)
	}
}

func TestNormalizedTextSharesEntry(t *testing.T) {
	cache := ttscache.New(t.TempDir(), nil)
	calls := 0
	if _, _, err := cache.GetOrCreate(context.Background(), "Task  complete", "v", fillWith(&calls, []byte("a"))); err != nil {
		t.Fatal(err)
	}
	_, hit, err := cache.GetOrCreate(context.Background(), "  Task complete ", "v", fillWith(&calls, []byte("b")))
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	if !hit || calls != 1 {
		t.Fatalf("whitespace variants must share an entry: hit=%v calls=%d", hit, calls)
	}
}

func TestDistinctVoicesGetDistinctEntries(t *testing.T) {
	cache := ttscache.New(t.TempDir(), nil)
	calls := 0
	if _, _, err := cache.GetOrCreate(context.Background(), "hello", "voice-a", fillWith(&calls, []byte("a"))); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := cache.GetOrCreate(context.Background(), "hello", "voice-b", fillWith(&calls, []byte("b"))); err != nil || hit {
		t.Fatalf("different voice must miss: hit=%v err=%v", hit, err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 synth calls, got %d", calls)
	}
}

func TestLookupMiss(t *testing.T) {
	cache := ttscache.New(t.TempDir(), nil)
	audio, hit, err := cache.Lookup("never stored", "v")
	if err != nil || hit || audio != nil {
		t.Fatalf("expected clean miss: %v %v %v", audio, hit, err)
	}
}

func TestLookupDetectsCorruptedAudio(t *testing.T) {
	cache := ttscache.New(t.TempDir(), nil)
	calls := 0
	if _, _, err := cache.GetOrCreate(context.Background(), "hello", "v", fillWith(&calls, []byte("pristine"))); err != nil {
		t.Fatal(err)
	}
	path := cache.Path("hello", "v")
	if err := os.WriteFile(path, []byte("tampered"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := cache.Lookup("hello", "v")
	if !errors.Is(err, services.ErrIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
	// The corrupt entry must never be overwritten.
	if _, _, err := cache.GetOrCreate(context.Background(), "hello", "v", fillWith(&calls, []byte("new"))); !errors.Is(err, services.ErrIntegrity) {
		t.Fatalf("expected integrity error on refill, got %v", err)
	}
	data, readErr := os.ReadFile(path)
	if readErr != nil || string(data) != "tampered" {
		t.Fatalf("entry was modified: %q %v", data, readErr)
	}
}

func TestVerifyReportsFaults(t *testing.T) {
	cache := ttscache.New(t.TempDir(), nil)
	calls := 0
	if _, _, err := cache.GetOrCreate(context.Background(), "good", "v", fillWith(&calls, []byte("good-audio"))); err != nil {
		t.Fatal(err)
	}
	if _, _, err := cache.GetOrCreate(context.Background(), "bad", "v", fillWith(&calls, []byte("bad-audio"))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cache.Path("bad", "v"), []byte("mangled"), 0o644); err != nil {
		t.Fatal(err)
	}

	faults, err := cache.Verify()
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if len(faults) != 1 {
		t.Fatalf("expected 1 fault, got %+v", faults)
	}
	if faults[0].Path != cache.Path("bad", "v") {
		t.Fatalf("unexpected fault path: %+v", faults[0])
	}
}

func TestEntriesListsCache(t *testing.T) {
	cache := ttscache.New(t.TempDir(), nil)
	calls := 0
	for _, text := range []string{"one", "two", "three"} {
		if _, _, err := cache.GetOrCreate(context.Background(), text, "v", fillWith(&calls, []byte(text))); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := cache.Entries()
	if err != nil {
		t.Fatalf("Entries returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.Text == "" || entry.Voice != "v" || entry.Size == 0 {
			t.Fatalf("incomplete entry: %+v", entry)
		}
	}
}

func TestEntriesEmptyCache(t *testing.T) {
	cache := ttscache.New(t.TempDir(), nil)
	entries, err := cache.Entries()
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty cache: %v %v", entries, err)
	}
}
