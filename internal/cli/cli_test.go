package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"wa-scheduler/internal/config"
	"wa-scheduler/internal/utils"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

// runCLI executes the root command inside a scratch directory.
func runCLI(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LOG_FILE", filepath.Join(dir, "bot.log"))
	t.Setenv("PID_FILE", filepath.Join(dir, "bot.pid"))
	t.Setenv("DATABASE_URL", "sqlite3://file:"+filepath.Join(dir, "wa.db")+"?_foreign_keys=on")
	for k, v := range env {
		t.Setenv(k, v)
	}

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env", filepath.Join(dir, ".env")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestInitThenSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := runCLI(t, nil, "init", "--config", path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("unexpected init output %q", out)
	}
	if _, err := runCLI(t, nil, "init", "--config", path); err == nil {
		t.Fatalf("init must refuse to overwrite")
	}

	out, err = runCLI(t, nil, "schedule", "-c", path)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "John Doe") || !strings.Contains(lines[3], "cron 0 8 * * 1") {
		t.Fatalf("unexpected schedule %q", out)
	}
}

func TestScheduleWithoutMessages(t *testing.T) {
	docs := map[string]string{
		"contact without messages": "contacts:\n  personal:\n    - name: Alice\n      phone: \"+15550001111\"\n",
		"no recipients":            "contacts: {}\nsettings:\n  wait_time: 5\n",
	}
	for name, doc := range docs {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		out, err := runCLI(t, nil, "schedule", "-c", path)
		if err != nil {
			t.Fatalf("%s: schedule: %v", name, err)
		}
		if strings.TrimSpace(out) != "No messages scheduled." {
			t.Fatalf("%s: unexpected output %q", name, out)
		}
	}
}

func TestScheduleMissingConfig(t *testing.T) {
	_, err := runCLI(t, nil, "schedule", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestPrintScheduleUsesClock(t *testing.T) {
	doc, err := config.Parse([]byte(`
contacts:
  personal:
    - name: Alice
      phone: "+15550001111"
      messages:
        - content: one
          time: "09:00"
        - content: two
          time: "07:00"
settings:
  timezone: UTC
`), ".yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out bytes.Buffer
	now := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	if err := printSchedule(&out, doc, fixedClock(now)); err != nil {
		t.Fatalf("print: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out.String())
	}
	if !strings.Contains(lines[0], "2026-05-04 09:00") || !strings.Contains(lines[1], "2026-05-05 07:00") {
		t.Fatalf("unexpected next runs %q", out.String())
	}
}

func TestTestCommandRequiresPhone(t *testing.T) {
	if _, err := runCLI(t, nil, "test"); err == nil {
		t.Fatalf("expected error without phone number")
	}
}

func TestTokenCommand(t *testing.T) {
	if _, err := runCLI(t, map[string]string{"JWT_SECRET": ""}, "token"); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}

	out, err := runCLI(t, map[string]string{"JWT_SECRET": "s3cret"}, "token", "ops")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	sub, err := utils.ParseSubject(strings.TrimSpace(out), "s3cret")
	if err != nil || sub != "ops" {
		t.Fatalf("unexpected token %q: %v", out, err)
	}
}

func TestDaemonStatusAndStopWhenNotRunning(t *testing.T) {
	out, err := runCLI(t, nil, "daemon", "status")
	if err != nil || !strings.Contains(out, "not running") {
		t.Fatalf("unexpected status %q: %v", out, err)
	}
	out, err = runCLI(t, nil, "daemon", "stop")
	if err != nil || !strings.Contains(out, "not running") {
		t.Fatalf("unexpected stop %q: %v", out, err)
	}
}

func TestDaemonStopWritesNothingWhenNotRunning(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "bot.log")
	env := map[string]string{"LOG_FILE": logFile, "PID_FILE": filepath.Join(dir, "bot.pid")}

	for _, args := range [][]string{{"daemon", "stop"}, {"daemon", "status"}} {
		out, err := runCLI(t, env, args...)
		if err != nil || !strings.Contains(out, "not running") {
			t.Fatalf("%v: unexpected output %q: %v", args, out, err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected an untouched directory, found %d entries (first %s)", len(entries), entries[0].Name())
	}
}

func TestDaemonStopRemovesStalePIDFile(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "stale.pid")
	if err := os.WriteFile(pidFile, []byte("999999999\n"), 0644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	out, err := runCLI(t, map[string]string{"PID_FILE": pidFile}, "daemon", "stop")
	if err != nil || !strings.Contains(out, "stale") {
		t.Fatalf("unexpected stop %q: %v", out, err)
	}
	if _, err := os.Stat(pidFile); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stale pid file must be removed")
	}
}
