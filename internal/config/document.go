package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"wa-scheduler/internal/model"

	"github.com/robfig/cron/v3"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Load reads the configuration document at path, validates it and applies
// settings defaults. Every failure is returned as a *ConfigError.
func Load(path string) (*model.Document, error) {
	data, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return doc, nil
}

// LoadSettings returns only the settings block. A missing file is not an
// error here: the defaults are good enough for a one-off send.
func LoadSettings(path string) (model.Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, &ConfigError{Path: path, Err: err}
	}
	data, err = standardize(data, filepath.Ext(path))
	if err != nil {
		return model.Settings{}, &ConfigError{Path: path, Err: err}
	}
	var doc model.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return model.Settings{}, &ConfigError{Path: path, Err: fmt.Errorf("decode: %w", err)}
	}
	settings := doc.Settings.WithDefaults()
	if err := validateSettings(settings); err != nil {
		return model.Settings{}, &ConfigError{Path: path, Err: err}
	}
	return settings, nil
}

// Parse decodes a document. ext selects the JWCC path for .json/.jsonc/.hujson;
// anything else is treated as YAML.
func Parse(data []byte, ext string) (*model.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("document is empty")
	}
	data, err := standardize(data, ext)
	if err != nil {
		return nil, err
	}
	var doc model.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	doc.Settings = doc.Settings.WithDefaults()
	if err := Validate(&doc); err != nil {
		return nil, err
	}
	for i := range doc.Contacts.Personal {
		doc.Contacts.Personal[i].Phone = model.NormalizePhone(doc.Contacts.Personal[i].Phone)
	}
	return &doc, nil
}

// Warnings lists problems that do not prevent loading.
func Warnings(doc *model.Document) []string {
	var out []string
	if len(doc.Contacts.Personal) == 0 && len(doc.Contacts.Groups) == 0 {
		out = append(out, "no contacts or groups configured")
	}
	for _, c := range doc.Contacts.Personal {
		if !strings.HasPrefix(c.Phone, "+") {
			out = append(out, fmt.Sprintf("phone number %s of %q does not start with a country code (+)", c.Phone, c.Name))
		}
		out = append(out, unscheduled(c.Name, c.Messages)...)
	}
	for _, g := range doc.Contacts.Groups {
		out = append(out, unscheduled("group "+g.Name, g.Messages)...)
	}
	return out
}

func unscheduled(owner string, msgs []model.Message) []string {
	var out []string
	for i, m := range msgs {
		if !m.Scheduled() {
			out = append(out, fmt.Sprintf("message %d of %s has no time or cron and is skipped", i+1, owner))
		}
	}
	return out
}

// Validate checks the invariants of a decoded document.
func Validate(doc *model.Document) error {
	var errs []error
	for i, c := range doc.Contacts.Personal {
		where := fmt.Sprintf("contacts.personal[%d]", i)
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: missing name", where))
		}
		if err := validatePhone(c.Phone); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}
		for j, m := range c.Messages {
			if err := validateMessage(m); err != nil {
				errs = append(errs, fmt.Errorf("%s.messages[%d]: %w", where, j, err))
			}
		}
	}
	for i, g := range doc.Contacts.Groups {
		where := fmt.Sprintf("contacts.groups[%d]", i)
		if strings.TrimSpace(g.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: missing name", where))
		}
		for j, m := range g.Messages {
			if err := validateMessage(m); err != nil {
				errs = append(errs, fmt.Errorf("%s.messages[%d]: %w", where, j, err))
			}
		}
	}
	if err := validateSettings(doc.Settings); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validatePhone(phone string) error {
	p := model.NormalizePhone(phone)
	digits := strings.TrimPrefix(p, "+")
	if digits == "" {
		return errors.New("missing phone number")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return fmt.Errorf("invalid phone number %q", phone)
		}
	}
	if len(digits) < 7 || len(digits) > 15 {
		return fmt.Errorf("phone number %q must have 7 to 15 digits", phone)
	}
	return nil
}

func validateMessage(m model.Message) error {
	switch m.Kind() {
	case model.MessageText:
		if strings.TrimSpace(m.Content) == "" {
			return errors.New("text message without content")
		}
	case model.MessageImage:
		if strings.TrimSpace(m.ImagePath) == "" {
			return errors.New("image message without image_path")
		}
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	hasTime := strings.TrimSpace(m.Time) != ""
	hasCron := strings.TrimSpace(m.Cron) != ""
	switch {
	case hasTime && hasCron:
		return errors.New("set either time or cron, not both")
	case hasTime:
		_, err := model.ParseTimeOfDay(m.Time)
		return err
	case hasCron:
		if _, err := cron.ParseStandard(m.Cron); err != nil {
			return fmt.Errorf("invalid cron %q: %w", m.Cron, err)
		}
		return nil
	default:
		return nil
	}
}

func validateSettings(s model.Settings) error {
	var errs []error
	if s.WaitTime != nil && *s.WaitTime < 0 {
		errs = append(errs, errors.New("settings.wait_time must not be negative"))
	}
	if s.RetryAttempts != nil && *s.RetryAttempts < 0 {
		errs = append(errs, errors.New("settings.retry_attempts must not be negative"))
	}
	if s.RetryDelay != nil && *s.RetryDelay < 0 {
		errs = append(errs, errors.New("settings.retry_delay must not be negative"))
	}
	if s.TickInterval != nil && *s.TickInterval <= 0 {
		errs = append(errs, errors.New("settings.tick_interval must be positive"))
	}
	if _, err := s.Location(); err != nil {
		errs = append(errs, fmt.Errorf("settings.timezone: %w", err))
	}
	switch s.Driver {
	case model.DriverWhatsmeow, model.DriverBrowser:
	default:
		errs = append(errs, fmt.Errorf("settings.driver: unknown driver %q", s.Driver))
	}
	return errors.Join(errs...)
}

func readDocument(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigError{Path: path, Err: errors.New("file not found (run `wa-scheduler init` to create a sample)")}
		}
		return nil, &ConfigError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &ConfigError{Path: path, Err: errors.New("is a directory")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return data, nil
}

// standardize turns JWCC (JSON with comments and trailing commas) into plain
// JSON, which yaml.v3 decodes as a YAML subset.
func standardize(data []byte, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".json", ".jsonc", ".hujson":
		ast, err := hujson.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		ast.Standardize()
		return ast.Pack(), nil
	}
	return data, nil
}
