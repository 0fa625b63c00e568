package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/raysh454/sitecheck/internal/logging"
)

func TestZapLogger_WritesJSONWithFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := logging.NewZapLoggerWithWriter(logging.Config{Level: "debug", Format: "json", ServiceName: "svc"}, zapcore.AddSync(&buf))

	l.With(logging.Component("runner")).Info("run finished", logging.Field{Key: "score", Value: 87})

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "run finished" {
		t.Errorf("expected msg 'run finished', got %v", entry["msg"])
	}
	if entry["component"] != "runner" {
		t.Errorf("expected component field, got %v", entry["component"])
	}
	if entry["score"] != float64(87) {
		t.Errorf("expected score 87, got %v", entry["score"])
	}
	if entry["logger"] != "svc" {
		t.Errorf("expected logger name svc, got %v", entry["logger"])
	}
}

func TestZapLogger_RespectsLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := logging.NewZapLoggerWithWriter(logging.Config{Level: "warn"}, zapcore.AddSync(&buf))

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn line missing: %s", out)
	}
}

func TestZapLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := logging.NewZapLoggerWithWriter(logging.Config{Level: "loud"}, zapcore.AddSync(&buf))

	l.Debug("dbg")
	l.Info("inf")

	if strings.Contains(buf.String(), "dbg") || !strings.Contains(buf.String(), "inf") {
		t.Errorf("expected info level fallback, got %s", buf.String())
	}
}

func TestErrField_NilSafe(t *testing.T) {
	t.Parallel()
	if f := logging.Err(nil); f.Value != nil {
		t.Errorf("expected nil value, got %v", f.Value)
	}
}
