package handler

import (
	"net/http"
	"time"
	"wa-scheduler/internal/scheduler"
	"wa-scheduler/internal/utils"
)

// ConnectionState is implemented by senders that keep a live connection.
type ConnectionState interface {
	IsConnected() bool
}

type JobLister interface {
	Triggers() []scheduler.TriggerInfo
}

type StatusHandler struct {
	Driver  string
	Started time.Time
	Conn    ConnectionState
	Jobs    JobLister
}

func NewStatusHandler(driver string, conn ConnectionState, jobs JobLister) *StatusHandler {
	return &StatusHandler{
		Driver:  driver,
		Started: time.Now(),
		Conn:    conn,
		Jobs:    jobs,
	}
}

func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.SuccessResponse(w, http.StatusOK, map[string]string{"status": "ok"}, "")
}

func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	// A sender without a persistent connection (browser) reports nil.
	var connected *bool
	if h.Conn != nil {
		c := h.Conn.IsConnected()
		connected = &c
	}
	triggers := 0
	if h.Jobs != nil {
		triggers = len(h.Jobs.Triggers())
	}

	utils.SuccessResponse(w, http.StatusOK, map[string]interface{}{
		"driver":     h.Driver,
		"connected":  connected,
		"triggers":   triggers,
		"started_at": h.Started,
		"uptime":     time.Since(h.Started).Round(time.Second).String(),
	}, "")
}

func (h *StatusHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := []scheduler.TriggerInfo{}
	if h.Jobs != nil {
		jobs = h.Jobs.Triggers()
	}
	utils.SuccessResponse(w, http.StatusOK, jobs, "Jobs retrieved successfully")
}
