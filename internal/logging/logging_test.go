package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felicia-viz/viz-relay/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNew_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "relay.log")

	logger, closer, err := New(config.LoggingConfig{
		Level:     "warn",
		Format:    "json",
		File:      path,
		MaxSizeMB: 1,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("filtered out")
	logger.Warn("client disconnected", "conn_id", "abc")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1:\n%s", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "client disconnected" || entry["conn_id"] != "abc" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_Errors(t *testing.T) {
	if _, _, err := New(config.LoggingConfig{Level: "loud"}); err == nil {
		t.Error("New() expected error for bad level")
	}
	if _, _, err := New(config.LoggingConfig{Format: "xml"}); err == nil {
		t.Error("New() expected error for bad format")
	}
}

func TestNew_Stdout(t *testing.T) {
	logger, closer, err := New(config.LoggingConfig{Level: "info", Format: "text"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if logger == nil {
		t.Fatal("nil logger")
	}
	if err := closer.Close(); err != nil {
		t.Errorf("stdout closer returned %v", err)
	}
}
