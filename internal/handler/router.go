package handler

import (
	"errors"
	"net/http"
	"wa-scheduler/internal/middleware"
	"wa-scheduler/internal/websocket"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string

	Status     *StatusHandler
	Deliveries *DeliveryHandler
	Send       *SendHandler
	Hub        *websocket.Hub
}

var ErrNoSecret = errors.New("status API requires JWT_SECRET")

// NewRouter wires the status API. Deliveries, Send and Hub are optional.
func NewRouter(cfg RouterConfig) (*mux.Router, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrNoSecret
	}
	mw := middleware.NewMiddleware(cfg.JWTSecret, cfg.AllowedOrigins)

	r := mux.NewRouter()
	r.Use(mw.CORS)
	r.Use(mw.RateLimitMiddleware)
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	r.HandleFunc("/api/health", cfg.Status.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(mw.AuthMiddleware)
	api.HandleFunc("/status", cfg.Status.Status).Methods(http.MethodGet)
	api.HandleFunc("/jobs", cfg.Status.ListJobs).Methods(http.MethodGet)

	if cfg.Deliveries != nil {
		api.HandleFunc("/deliveries", cfg.Deliveries.ListDeliveries).Methods(http.MethodGet)
		api.HandleFunc("/deliveries/stats", cfg.Deliveries.Stats).Methods(http.MethodGet)
		api.HandleFunc("/deliveries/{recipient}", cfg.Deliveries.RecipientDeliveries).Methods(http.MethodGet)
	}
	if cfg.Send != nil {
		api.HandleFunc("/send", cfg.Send.Send).Methods(http.MethodPost)
	}
	if cfg.Hub != nil {
		events := NewEventsHandler(cfg.Hub, cfg.JWTSecret, cfg.AllowedOrigins)
		r.HandleFunc("/ws", events.WebSocketHandler).Methods(http.MethodGet)
	}
	return r, nil
}
