package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	mdwlog "github.com/msto63/netplane/foundation/core/log"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected mdwlog.Level
	}{
		{"trace", mdwlog.LevelTrace},
		{"debug", mdwlog.LevelDebug},
		{"INFO", mdwlog.LevelInfo},
		{"warn", mdwlog.LevelWarn},
		{"warning", mdwlog.LevelWarn},
		{"error", mdwlog.LevelError},
		{"invalid", mdwlog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDefaultLoggerConfig(t *testing.T) {
	cfg := DefaultLoggerConfig("my-service")

	if cfg.ServiceName != "my-service" {
		t.Errorf("ServiceName = %v, want my-service", cfg.ServiceName)
	}
	if cfg.Level != "info" {
		t.Errorf("Level = %v, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %v, want json", cfg.Format)
	}
}

func TestNewLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		ServiceName: "netplane",
		Level:       "debug",
		Format:      "json",
		Output:      &buf,
	})

	logger.WithField("component", "tree").Debug("resource added", mdwlog.Fields{"name": "lb0"})

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["message"] != "resource added" || entry["component"] != "tree" || entry["name"] != "lb0" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewLogger_AdditionalOutputs(t *testing.T) {
	var primary, extra bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Format:            "console",
		Output:            &primary,
		AdditionalOutputs: []io.Writer{&extra},
	})

	logger.Info("hello")

	if !strings.Contains(primary.String(), "hello") || !strings.Contains(extra.String(), "hello") {
		t.Errorf("primary = %q, extra = %q", primary.String(), extra.String())
	}
}

func TestApplyLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: "info", Output: &buf})
	child := logger.WithField("component", "grpc")

	child.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug written at info level: %q", buf.String())
	}

	ApplyLevel(logger, "debug")
	child.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("derived logger did not follow the level change: %q", buf.String())
	}
}

func TestLogger_KeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := Wrap(NewLogger(LoggerConfig{Output: &buf}), "shell")

	if logger.Name() != "shell" {
		t.Errorf("Name() = %v, want shell", logger.Name())
	}

	logger.Info("message", "key1", "value1", "key2", 42, "orphan")
	logger.Debug("filtered")

	out := buf.String()
	if !strings.Contains(out, `"key1":"value1"`) || !strings.Contains(out, `"key2":42`) {
		t.Errorf("key/values missing: %q", out)
	}
	if strings.Contains(out, "orphan") || strings.Contains(out, "filtered") {
		t.Errorf("unexpected output: %q", out)
	}

	logger.SetLevel(LevelDebug)
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("SetLevel(LevelDebug) should enable debug output")
	}
}

func TestNew(t *testing.T) {
	logger := New("test-service")
	if logger == nil || logger.name != "test-service" {
		t.Fatalf("New() = %+v", logger)
	}
}

func TestToFields(t *testing.T) {
	if fields := toFields(); fields != nil {
		t.Error("toFields() with no args should return nil")
	}

	fields := toFields("key1", "value1", "key2", 42)
	if fields["key1"] != "value1" || fields["key2"] != 42 {
		t.Errorf("toFields() = %v", fields)
	}

	fields = toFields(123, "value")
	if len(fields) != 0 {
		t.Errorf("Non-string key should be skipped, got %v fields", len(fields))
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	logger := Wrap(NewLogger(LoggerConfig{Output: io.Discard}), "benchmark")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", "iteration", i)
	}
}
