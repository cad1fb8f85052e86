package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return out
}

func TestNewHandlerJSON(t *testing.T) {
	t.Run("MasksConfiguredKeys", func(t *testing.T) {
		// Arrange
		var buf bytes.Buffer
		logger := slog.New(newHandler(&buf, &Config{ServiceName: "quill", MaskFields: []string{" Password ", "token"}}, nil))

		// Act
		logger.Info("signin",
			"password", "Secr3t!Pass",
			"body", `{"email":"a@b.c","password":"x"}`,
			"payload", map[string]any{"nested": map[string]any{"token": "abc"}},
		)

		// Assert
		line := decodeLine(t, &buf)
		if line["password"] != maskedValue {
			t.Fatalf("password = %v, want masked", line["password"])
		}
		if body, _ := line["body"].(string); strings.Contains(body, `"x"`) || !strings.Contains(body, "a@b.c") {
			t.Fatalf("body = %q, want password masked and email kept", body)
		}
		nested := line["payload"].(map[string]any)["nested"].(map[string]any)
		if nested["token"] != maskedValue {
			t.Fatalf("nested token = %v, want masked", nested["token"])
		}
		if line["service"] != "quill" {
			t.Fatalf("service = %v, want quill", line["service"])
		}
	})

	t.Run("AddsCorrelationID", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(newHandler(&buf, &Config{}, nil))

		logger.InfoContext(SetCorrelationID(context.Background(), "cid-123"), "hello")

		line := decodeLine(t, &buf)
		if line["_cID"] != "cid-123" {
			t.Fatalf("_cID = %v, want cid-123", line["_cID"])
		}
		if _, ok := line["severity"]; !ok {
			t.Fatal("level key should be renamed to severity")
		}
	})

	t.Run("RespectsLevel", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(newHandler(&buf, &Config{LogLevel: "warn"}, nil))

		logger.Info("dropped")
		if buf.Len() != 0 {
			t.Fatalf("info logged at warn level: %q", buf.String())
		}

		logger.Warn("kept")
		if buf.Len() == 0 {
			t.Fatal("warn not logged at warn level")
		}
	})
}

func TestNewHandlerText(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, &Config{LogFormat: "TEXT", MaskFields: []string{"password"}}, nil))

	logger.Info("signin", "password", "Secr3t!Pass")

	out := buf.String()
	if !strings.Contains(out, "signin") {
		t.Fatalf("text output %q missing message", out)
	}
	if strings.Contains(out, "Secr3t!Pass") {
		t.Fatalf("text output %q leaked masked value", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCorrelationID(t *testing.T) {
	if got := GetCorrelationID(context.Background()); got != "" {
		t.Fatalf("empty context correlation = %q", got)
	}

	//nolint:staticcheck // nil context is an accepted input
	if got := GetCorrelationID(nil); got != "" {
		t.Fatalf("nil context correlation = %q", got)
	}

	ctx := SetCorrelationID(context.Background(), "abc")
	if got := GetCorrelationID(ctx); got != "abc" {
		t.Fatalf("correlation = %q, want abc", got)
	}
}
