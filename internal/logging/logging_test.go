package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	base := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	scoped := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	if got := Resolve(context.Background(), nil); got != slog.Default() {
		t.Fatal("expected default logger without base or context logger")
	}
	if got := Resolve(context.Background(), base); got != base {
		t.Fatal("expected base logger")
	}
	ctx := ContextWithLogger(context.Background(), scoped)
	if got := Resolve(ctx, base); got != scoped {
		t.Fatal("expected context logger to win over base")
	}
	if FromContext(context.Background()) != nil {
		t.Fatal("expected nil logger from empty context")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"", `"msg":"hello"`},
		{"json", `"msg":"hello"`},
		{"TEXT", `msg=hello`},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger, err := New(&buf, tt.format, slog.LevelInfo)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", tt.format, err)
		}
		logger.Info("hello")
		logger.Debug("hidden")
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("format %q: expected %s in %q", tt.format, tt.want, buf.String())
		}
		if strings.Contains(buf.String(), "hidden") {
			t.Errorf("format %q: debug record should be filtered", tt.format)
		}
	}

	if _, err := New(&bytes.Buffer{}, "xml", slog.LevelInfo); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
