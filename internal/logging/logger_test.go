package logging

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileReceivesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	log, err := New("debug", path, false)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	component := log.Component("scheduler")
	component.Info().Str("recipient", "Alice").Msg("trigger due")
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", data, err)
	}
	if entry["component"] != "scheduler" || entry["message"] != "trigger due" || entry["level"] != "info" {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	log, err := New("warn", path, false)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	log.Close()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") || !strings.Contains(string(data), "shown") {
		t.Fatalf("unexpected log contents %q", data)
	}
}

func TestLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	if err := os.WriteFile(path, []byte("{\"message\":\"old\"}\n"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	log, err := New("info", path, false)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Info().Msg("new")
	log.Close()

	data, _ := os.ReadFile(path)
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", data)
	}
}

func TestFileCreatedOnFirstWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	log, err := New("info", path, false)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Debug().Msg("below level")
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("log file must not exist before the first entry, stat err %v", err)
	}
	log.Info().Msg("first")
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("log file missing after write: %v", err)
	}
}
