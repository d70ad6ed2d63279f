package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"wa-scheduler/internal/model"
	"wa-scheduler/internal/utils"

	"github.com/gorilla/mux"
)

type DeliveryStore interface {
	RecentDeliveries(ctx context.Context, limit int) ([]model.DeliveryRecord, error)
	DeliveriesForRecipient(ctx context.Context, recipient string, limit int) ([]model.DeliveryRecord, error)
	Stats(ctx context.Context) (*model.DeliveryStats, error)
}

type DeliveryHandler struct {
	Repo DeliveryStore
}

func NewDeliveryHandler(repo DeliveryStore) *DeliveryHandler {
	return &DeliveryHandler{Repo: repo}
}

func (h *DeliveryHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	records, err := h.Repo.RecentDeliveries(r.Context(), limit)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch deliveries")
		return
	}
	utils.SuccessResponse(w, http.StatusOK, records, "")
}

func (h *DeliveryHandler) RecipientDeliveries(w http.ResponseWriter, r *http.Request) {
	recipient := strings.TrimSpace(mux.Vars(r)["recipient"])
	if recipient == "" {
		utils.ErrorResponse(w, http.StatusBadRequest, "Recipient is required")
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	records, err := h.Repo.DeliveriesForRecipient(r.Context(), recipient, limit)
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch deliveries")
		return
	}
	utils.SuccessResponse(w, http.StatusOK, records, "")
}

func (h *DeliveryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Repo.Stats(r.Context())
	if err != nil {
		utils.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	utils.SuccessResponse(w, http.StatusOK, stats, "")
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid limit")
		return 0, false
	}
	return limit, true
}
