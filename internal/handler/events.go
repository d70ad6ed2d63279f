package handler

import (
	"net/http"
	"wa-scheduler/internal/utils"
	"wa-scheduler/internal/websocket"
)

type EventsHandler struct {
	Hub            *websocket.Hub
	JWTSecret      string
	AllowedOrigins []string
}

func NewEventsHandler(hub *websocket.Hub, jwtSecret string, allowedOrigins []string) *EventsHandler {
	return &EventsHandler{Hub: hub, JWTSecret: jwtSecret, AllowedOrigins: allowedOrigins}
}

func (h *EventsHandler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	// Validate token from query param since WS doesn't support headers easily in browser JS
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Missing token")
		return
	}
	if _, err := utils.ParseSubject(token, h.JWTSecret); err != nil {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	websocket.ServeWs(h.Hub, w, r, h.AllowedOrigins)
}
