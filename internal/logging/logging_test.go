package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: FormatText, Output: &buf})

	logger.Info("scaffolding provider", "provider", "auth0")

	out := buf.String()
	if !strings.Contains(out, "scaffolding provider") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "provider=auth0") {
		t.Errorf("output missing attribute: %q", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Output: &buf})

	logger.Info("done", "files", 3)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if record["msg"] != "done" {
		t.Errorf("msg = %v, want done", record["msg"])
	}
	if record["files"] != float64(3) {
		t.Errorf("files = %v, want 3", record["files"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Format: FormatText, Output: &buf})

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestNew_DefaultsToText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: Format("bogus"), Output: &buf})

	logger.Info("msg")
	if buf.Len() == 0 {
		t.Error("expected output with unknown format falling back to text")
	}
}

func TestNewDiscard(t *testing.T) {
	logger := NewDiscard()
	// Must not panic and must accept records at any level.
	logger.Error("dropped")
}

func TestHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	base := NewHandler(&buf, nil)
	logger := slog.New(base.WithAttrs([]slog.Attr{slog.String("platform", "fly")}))

	logger.Info("detected")

	if !strings.Contains(buf.String(), "platform=fly") {
		t.Errorf("output missing bound attribute: %q", buf.String())
	}
}

func TestSupportsColor_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	if supportsColor(&buf, true) {
		t.Error("NO_COLOR should disable color")
	}
}

func TestSupportsColor_DumbTerm(t *testing.T) {
	t.Setenv("TERM", "dumb")
	var buf bytes.Buffer
	if supportsColor(&buf, true) {
		t.Error("TERM=dumb should disable color")
	}
}

func TestIsTTY_PlainWriter(t *testing.T) {
	var buf bytes.Buffer
	if IsTTY(&buf) {
		t.Error("bytes.Buffer is not a TTY")
	}
}
