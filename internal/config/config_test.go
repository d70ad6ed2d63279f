package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wa-scheduler/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadParsesYaml(t *testing.T) {
	path := writeFile(t, "config.yaml", `
contacts:
  personal:
    - name: John Doe
      phone: "+1 (234) 567-890"
      messages:
        - type: text
          content: Good morning!
          time: "09:00"
  groups:
    - name: Family Group
      messages:
        - type: image
          image_path: images/quote.jpg
          caption: Daily motivation!
          time: "18:00"
        - content: Weekly
          cron: "0 8 * * 1"
settings:
  wait_time: 5
  retry_attempts: 0
`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := doc.Contacts.Personal[0].Phone; got != "+1234567890" {
		t.Fatalf("expected normalized phone, got %q", got)
	}
	if len(doc.Entries()) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(doc.Entries()))
	}
	s := doc.Settings
	if s.Wait().Seconds() != 5 {
		t.Fatalf("expected wait 5s, got %s", s.Wait())
	}
	if s.Retries() != 0 {
		t.Fatalf("expected explicit zero retries to survive defaults, got %d", s.Retries())
	}
	if s.RetryBackoff().Seconds() != 30 || !s.ShouldCloseTab() {
		t.Fatalf("expected defaults for omitted fields, got %+v", s)
	}
}

func TestLoadImagePathIsNotCheckedAtLoadTime(t *testing.T) {
	path := writeFile(t, "config.yaml", `
contacts:
  groups:
    - name: Team
      messages:
        - type: image
          image_path: does/not/exist.png
          time: "07:15"
`)
	if _, err := Load(path); err != nil {
		t.Fatalf("missing image must not fail loading: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T (%v)", err, err)
	}
}

func TestLoadMalformedYaml(t *testing.T) {
	path := writeFile(t, "config.yaml", "contacts: [unterminated")
	_, err := Load(path)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"bad time": `
contacts:
  personal:
    - name: A
      phone: "+1234567890"
      messages:
        - content: hi
          time: "9pm"`,
		"bad phone": `
contacts:
  personal:
    - name: A
      phone: "call me"
      messages:
        - content: hi
          time: "09:00"`,
		"unknown type": `
contacts:
  groups:
    - name: G
      messages:
        - type: video
          time: "09:00"`,
		"both time and cron": `
contacts:
  groups:
    - name: G
      messages:
        - content: hi
          time: "09:00"
          cron: "0 9 * * *"`,
		"bad driver": `
contacts:
  groups:
    - name: G
      messages:
        - content: hi
          time: "09:00"
settings:
  driver: carrier-pigeon`,
	}
	for name, body := range cases {
		path := writeFile(t, "config.yaml", body)
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadJWCC(t *testing.T) {
	path := writeFile(t, "config.jsonc", `
{
  // commented JSON is accepted too
  "contacts": {
    "personal": [
      {"name": "Ann", "phone": "+441234567890", "messages": [
        {"type": "text", "content": "hello", "time": "12:30"},
      ]},
    ],
  },
  "settings": {"driver": "browser"},
}`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load jsonc: %v", err)
	}
	if doc.Settings.Driver != model.DriverBrowser {
		t.Fatalf("expected browser driver, got %q", doc.Settings.Driver)
	}
	if doc.Contacts.Personal[0].Messages[0].Time != "12:30" {
		t.Fatalf("unexpected message %+v", doc.Contacts.Personal[0].Messages[0])
	}
}

func TestLoadSettingsDefaultsWhenMissing(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Wait().Seconds() != 20 {
		t.Fatalf("expected default wait, got %s", s.Wait())
	}
}

func TestLoadSettingsIgnoresContacts(t *testing.T) {
	path := writeFile(t, "config.yaml", `
settings:
  wait_time: 7
`)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Wait().Seconds() != 7 {
		t.Fatalf("expected 7s, got %s", s.Wait())
	}
}

func TestWarningsForMissingCountryCode(t *testing.T) {
	path := writeFile(t, "config.yaml", `
contacts:
  personal:
    - name: Local
      phone: "1234567890"
      messages:
        - content: hi
          time: "09:00"
`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(Warnings(doc)) != 1 {
		t.Fatalf("expected one warning, got %v", Warnings(doc))
	}
}

func TestLoadWithoutRecipients(t *testing.T) {
	path := writeFile(t, "config.yaml", "contacts: {}\nsettings:\n  wait_time: 5\n")
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Entries()) != 0 {
		t.Fatalf("expected no entries, got %d", len(doc.Entries()))
	}
	if w := Warnings(doc); len(w) != 1 || !strings.Contains(w[0], "no contacts") {
		t.Fatalf("unexpected warnings %v", w)
	}
}

func TestMessageWithoutTimeIsSkipped(t *testing.T) {
	path := writeFile(t, "config.yaml", `
contacts:
  personal:
    - name: A
      phone: "+1234567890"
      messages:
        - content: someday
        - content: hi
          time: "09:00"
`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entries := doc.Entries()
	if len(entries) != 1 || entries[0].Message.Content != "hi" {
		t.Fatalf("expected only the timed message, got %+v", entries)
	}
	if w := Warnings(doc); len(w) != 1 || !strings.Contains(w[0], "skipped") {
		t.Fatalf("unexpected warnings %v", w)
	}
}

func TestWriteSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("sample does not load: %v", err)
	}
	if len(doc.Entries()) != 4 {
		t.Fatalf("expected 4 sample entries, got %d", len(doc.Entries()))
	}
	if err := WriteSample(path); err == nil {
		t.Fatalf("expected WriteSample to refuse overwriting")
	}
}

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("BROWSER_HEADLESS", "true")
	env := LoadEnv(filepath.Join(t.TempDir(), ".env"))
	if env.EnvFileLoaded {
		t.Fatalf("no .env file exists")
	}
	if env.HTTPAddr != ":9090" || !env.BrowserHeadless {
		t.Fatalf("unexpected env %+v", env)
	}
	if len(env.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", env.AllowedOrigins)
	}
	if env.ConfigFile == "" || env.PIDFile == "" || env.ImageDir != "images" {
		t.Fatalf("expected defaults, got %+v", env)
	}
}
