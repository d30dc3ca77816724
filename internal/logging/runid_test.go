package logging

import (
	"context"
	"testing"
)

func TestRunIDRoundTrip(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-abc-123")
	if got := GetRunID(ctx); got != "run-abc-123" {
		t.Fatalf("expected run id back, got %q", got)
	}
}

func TestGetRunIDMissing(t *testing.T) {
	if got := GetRunID(context.Background()); got != "" {
		t.Fatalf("expected empty id on bare context, got %q", got)
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("unexpected short id: %q", got)
	}
	if got := ShortID("abc"); got != "abc" {
		t.Fatalf("short input must pass through, got %q", got)
	}
}
