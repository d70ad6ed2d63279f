package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// Logger writes human readable lines to stderr and appends JSON lines to the
// log file so background runs can be inspected with `start_bot.sh logs`.
type Logger struct {
	zerolog.Logger
	file *lazyFile
}

// New configures the logger. The log file is created on the first write, so
// commands that never log leave no file behind. An empty path logs to the
// console only. Background runs disable the console writer because the
// launcher already redirects stderr into the same file.
func New(level, path string, console bool) (*Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var writers []io.Writer
	if console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})
	}

	var f *lazyFile
	if path != "" {
		f = &lazyFile{path: path}
		writers = append(writers, f)
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(lvl).With().Timestamp().Logger()
	return &Logger{Logger: zl, file: f}, nil
}

// Nop discards everything; used by tests and one-shot commands.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// Component returns a sub-logger tagged with the component name.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// WhatsApp adapts the logger for whatsmeow's internal logging.
func (l *Logger) WhatsApp(module string) waLog.Logger {
	return waLog.Zerolog(l.With().Str("component", "whatsmeow").Str("module", module).Logger())
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// lazyFile opens the log file in append mode on the first write.
type lazyFile struct {
	path string

	mu  sync.Mutex
	f   *os.File
	err error
}

func (w *lazyFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil && w.err == nil {
		w.f, w.err = openAppend(w.path)
	}
	if w.err != nil {
		return 0, w.err
	}
	return w.f.Write(p)
}

func (w *lazyFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func openAppend(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("logging: ensure log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return f, nil
}
