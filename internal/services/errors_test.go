package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chime/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrBackendFailure, "elevenlabs", "synthesize", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrBackendFailure) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"elevenlabs", "synthesize", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "openai", "speech", "", nil)
	if !errors.Is(err, services.ErrBackendFailure) {
		t.Fatalf("expected default backend failure marker, got %v", err)
	}
}

func TestRetriable(t *testing.T) {
	cfgErr := services.Wrap(services.ErrConfiguration, "elevenlabs", "synthesize", "voice missing", nil)
	if services.Retriable(cfgErr) {
		t.Fatal("configuration errors should abort the chain")
	}
	timeoutErr := services.Wrap(services.ErrTimeout, "openai", "speech", "deadline", nil)
	if !services.Retriable(timeoutErr) {
		t.Fatal("timeouts should fall through to the next backend")
	}
}

func TestContextAnnotations(t *testing.T) {
	ctx := services.WithSignal(context.Background(), "notify")
	ctx = services.WithBackend(ctx, "elevenlabs")
	ctx = services.WithRequestID(ctx, "req-42")

	if signal, ok := services.SignalFromContext(ctx); !ok || signal != "notify" {
		t.Fatalf("signal = %q, %v", signal, ok)
	}
	if backend, ok := services.BackendFromContext(ctx); !ok || backend != "elevenlabs" {
		t.Fatalf("backend = %q, %v", backend, ok)
	}
	if id, ok := services.RequestIDFromContext(ctx); !ok || id != "req-42" {
		t.Fatalf("request id = %q, %v", id, ok)
	}
	if _, ok := services.SignalFromContext(context.Background()); ok {
		t.Fatal("expected missing signal")
	}
}
