// Package launcher runs the scheduler as a background process tracked by a
// PID file.
package launcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultStopTimeout = 10 * time.Second
	pollInterval       = 100 * time.Millisecond
)

type Launcher struct {
	PIDFile string
	LogFile string
	// Command is the argv of the background process.
	Command []string
	Dir     string

	StopTimeout time.Duration
}

// State is the outcome of Status and Stop.
type State struct {
	Running bool
	PID     int
	// Stale is set when a PID file named a dead process and was removed.
	Stale bool
}

func (s State) String() string {
	switch {
	case s.Running:
		return fmt.Sprintf("running (pid %d)", s.PID)
	case s.Stale:
		return fmt.Sprintf("not running (removed stale pid file for %d)", s.PID)
	default:
		return "not running"
	}
}

// Start spawns Command detached with output appended to LogFile and
// records its PID.
func (l *Launcher) Start() (int, error) {
	if len(l.Command) == 0 {
		return 0, &ProcessError{Op: "start", Err: errors.New("no command configured")}
	}
	state, err := l.Status()
	if err != nil {
		return 0, err
	}
	if state.Running {
		return state.PID, &ProcessError{Op: "start", PID: state.PID, Err: ErrAlreadyRunning}
	}

	logFile, err := os.OpenFile(l.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, &ProcessError{Op: "start", Err: fmt.Errorf("open log file: %w", err)}
	}
	defer logFile.Close()

	cmd := exec.Command(l.Command[0], l.Command[1:]...)
	cmd.Dir = l.Dir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	cmd.SysProcAttr = detachedAttr()

	if err := cmd.Start(); err != nil {
		return 0, &ProcessError{Op: "start", Err: err}
	}
	pid := cmd.Process.Pid
	if err := writePID(l.PIDFile, pid); err != nil {
		_ = cmd.Process.Kill()
		return 0, &ProcessError{Op: "start", PID: pid, Err: fmt.Errorf("write pid file: %w", err)}
	}
	// Reap the child if it dies while we are still around.
	go cmd.Wait()
	return pid, nil
}

// Stop terminates the recorded process. A missing PID file is not an error.
func (l *Launcher) Stop() (State, error) {
	pid, err := readPID(l.PIDFile)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, &ProcessError{Op: "stop", Err: err}
	}
	if !alive(pid) {
		if err := removePID(l.PIDFile); err != nil {
			return State{}, &ProcessError{Op: "stop", PID: pid, Err: err}
		}
		return State{PID: pid, Stale: true}, nil
	}

	if err := terminate(pid); err != nil {
		return State{Running: true, PID: pid}, &ProcessError{Op: "stop", PID: pid, Err: err}
	}

	timeout := l.StopTimeout
	if timeout <= 0 {
		timeout = defaultStopTimeout
	}
	deadline := time.Now().Add(timeout)
	for alive(pid) {
		if time.Now().After(deadline) {
			return State{Running: true, PID: pid}, &ProcessError{Op: "stop", PID: pid, Err: fmt.Errorf("still running after %s", timeout)}
		}
		time.Sleep(pollInterval)
	}

	if err := removePID(l.PIDFile); err != nil {
		return State{PID: pid}, &ProcessError{Op: "stop", PID: pid, Err: err}
	}
	return State{PID: pid}, nil
}

// Status reports whether the recorded process is alive, removing a stale
// PID file.
func (l *Launcher) Status() (State, error) {
	pid, err := readPID(l.PIDFile)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		// An unreadable or garbled file cannot name a live process.
		if rmErr := removePID(l.PIDFile); rmErr != nil {
			return State{}, &ProcessError{Op: "status", Err: rmErr}
		}
		return State{Stale: true}, nil
	}
	if alive(pid) {
		return State{Running: true, PID: pid}, nil
	}
	if err := removePID(l.PIDFile); err != nil {
		return State{}, &ProcessError{Op: "status", PID: pid, Err: err}
	}
	return State{PID: pid, Stale: true}, nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid file %s", path)
	}
	return pid, nil
}

func writePID(path string, pid int) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0644)
}

func removePID(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
