package model

import (
	"fmt"
	"strings"
	"time"
)

type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageImage MessageKind = "image"
)

type Message struct {
	Type      MessageKind `yaml:"type" json:"type"`
	Time      string      `yaml:"time,omitempty" json:"time,omitempty"`
	Cron      string      `yaml:"cron,omitempty" json:"cron,omitempty"`
	Content   string      `yaml:"content,omitempty" json:"content,omitempty"`
	ImagePath string      `yaml:"image_path,omitempty" json:"image_path,omitempty"`
	Caption   string      `yaml:"caption,omitempty" json:"caption,omitempty"`
}

// Kind defaults to text when the type was omitted.
func (m Message) Kind() MessageKind {
	if m.Type == "" {
		return MessageText
	}
	return MessageKind(strings.ToLower(string(m.Type)))
}

// Summary is a short human readable description used in logs and listings.
func (m Message) Summary() string {
	switch m.Kind() {
	case MessageImage:
		if m.Caption != "" {
			return fmt.Sprintf("image %s (%s)", m.ImagePath, truncate(m.Caption, 40))
		}
		return "image " + m.ImagePath
	default:
		return truncate(m.Content, 60)
	}
}

// Scheduled reports whether the message has a time or a cron expression.
// Messages without one are never registered.
func (m Message) Scheduled() bool {
	return strings.TrimSpace(m.Time) != "" || strings.TrimSpace(m.Cron) != ""
}

// ScheduleLabel is what the schedule listing prints for this message.
func (m Message) ScheduleLabel() string {
	if m.Cron != "" {
		return "cron " + m.Cron
	}
	return m.Time
}

// TimeOfDay is a wall clock time in 24-hour notation.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts "HH:MM" (a single digit hour is tolerated).
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// CronSpec renders the time as a daily 5-field cron expression.
func (t TimeOfDay) CronSpec() string {
	return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
