package runctx

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestWithRun(t *testing.T) {
	ctx := WithRun(context.Background())
	rc := FromContext(ctx)
	if len(rc.RunID) != 8 {
		t.Errorf("Expected 8 hex chars, got %q", rc.RunID)
	}
	if FromContext(WithRun(context.Background())).RunID == rc.RunID {
		t.Errorf("Expected distinct run IDs")
	}
}

func TestFromContext_Missing(t *testing.T) {
	if got := FromContext(context.Background()).RunID; got != "unknown" {
		t.Errorf("Expected unknown, got %q", got)
	}
}

func TestWrap(t *testing.T) {
	ctx := WithRun(context.Background())
	base := errors.New("boom")

	err := Wrap(ctx, base)
	if !errors.Is(err, base) {
		t.Errorf("Expected wrapped error to match base")
	}
	if !strings.Contains(err.Error(), FromContext(ctx).RunID) {
		t.Errorf("Expected run ID in message, got %q", err.Error())
	}
	if Wrap(ctx, nil) != nil {
		t.Errorf("Expected nil for nil error")
	}
}
