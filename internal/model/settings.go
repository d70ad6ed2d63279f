package model

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	DriverWhatsmeow = "whatsmeow"
	DriverBrowser   = "browser"
)

// Settings mirrors the settings block of the configuration document.
// Pointer fields distinguish "omitted" from an explicit zero value.
type Settings struct {
	WaitTime      *int     `yaml:"wait_time,omitempty" json:"wait_time,omitempty"`
	CloseTab      *bool    `yaml:"close_tab,omitempty" json:"close_tab,omitempty"`
	ImageFormats  []string `yaml:"image_formats,omitempty" json:"image_formats,omitempty"`
	RetryAttempts *int     `yaml:"retry_attempts,omitempty" json:"retry_attempts,omitempty"`
	RetryDelay    *int     `yaml:"retry_delay,omitempty" json:"retry_delay,omitempty"`
	Timezone      string   `yaml:"timezone,omitempty" json:"timezone,omitempty"`
	Driver        string   `yaml:"driver,omitempty" json:"driver,omitempty"`
	TickInterval  *int     `yaml:"tick_interval,omitempty" json:"tick_interval,omitempty"`
	NotifyWebhook string   `yaml:"notify_webhook,omitempty" json:"notify_webhook,omitempty"`
}

var DefaultImageFormats = []string{".jpg", ".jpeg", ".png", ".gif"}

func DefaultSettings() Settings {
	return Settings{}.WithDefaults()
}

// WithDefaults fills every omitted field.
func (s Settings) WithDefaults() Settings {
	if s.WaitTime == nil {
		s.WaitTime = intPtr(20)
	}
	if s.CloseTab == nil {
		s.CloseTab = boolPtr(true)
	}
	formats := s.ImageFormats
	if len(formats) == 0 {
		formats = DefaultImageFormats
	}
	s.ImageFormats = make([]string, 0, len(formats))
	for _, ext := range formats {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.ImageFormats = append(s.ImageFormats, ext)
	}
	if s.RetryAttempts == nil {
		s.RetryAttempts = intPtr(2)
	}
	if s.RetryDelay == nil {
		s.RetryDelay = intPtr(30)
	}
	if strings.TrimSpace(s.Timezone) == "" {
		s.Timezone = "local"
	}
	if strings.TrimSpace(s.Driver) == "" {
		s.Driver = DriverWhatsmeow
	}
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	if s.TickInterval == nil {
		s.TickInterval = intPtr(1)
	}
	return s
}

func (s Settings) Wait() time.Duration {
	return seconds(s.WaitTime)
}

func (s Settings) Retries() int {
	if s.RetryAttempts == nil || *s.RetryAttempts < 0 {
		return 0
	}
	return *s.RetryAttempts
}

func (s Settings) RetryBackoff() time.Duration {
	return seconds(s.RetryDelay)
}

func (s Settings) ShouldCloseTab() bool {
	return s.CloseTab == nil || *s.CloseTab
}

func (s Settings) Interval() time.Duration {
	d := seconds(s.TickInterval)
	if d <= 0 {
		return time.Second
	}
	return d
}

// Location resolves the configured timezone; "local" or empty means time.Local.
func (s Settings) Location() (*time.Location, error) {
	tz := strings.TrimSpace(s.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

// AcceptsImage reports whether the file extension is one of the accepted formats.
func (s Settings) AcceptsImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	formats := s.ImageFormats
	if len(formats) == 0 {
		formats = DefaultImageFormats
	}
	for _, f := range formats {
		if f == ext {
			return true
		}
	}
	return false
}

func seconds(v *int) time.Duration {
	if v == nil || *v < 0 {
		return 0
	}
	return time.Duration(*v) * time.Second
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
