package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
	"wa-scheduler/internal/model"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

type DeliveryRepository struct {
	DB *sql.DB
}

func NewDeliveryRepository(db *sql.DB) *DeliveryRepository {
	return &DeliveryRepository{DB: db}
}

// LogDelivery inserts rec, filling in ID and CreatedAt when they are empty.
func (r *DeliveryRepository) LogDelivery(ctx context.Context, rec *model.DeliveryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	query := `
		INSERT INTO deliveries (id, recipient_name, recipient_kind, address, message_type, content, attempts, success, error_message, origin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.DB.ExecContext(ctx, query, rec.ID, rec.RecipientName, string(rec.RecipientKind), rec.Address, string(rec.MessageType), rec.Content, rec.Attempts, rec.Success, rec.ErrorMessage, string(rec.Origin), rec.CreatedAt)
	return err
}

// RecentDeliveries returns the newest records first.
func (r *DeliveryRepository) RecentDeliveries(ctx context.Context, limit int) ([]model.DeliveryRecord, error) {
	query := `
		SELECT id, recipient_name, recipient_kind, address, message_type, content, attempts, success, error_message, origin, created_at
		FROM deliveries
		ORDER BY created_at DESC
		LIMIT $1
	`
	return r.query(ctx, query, clampLimit(limit))
}

// DeliveriesForRecipient matches the recipient name or address.
func (r *DeliveryRepository) DeliveriesForRecipient(ctx context.Context, recipient string, limit int) ([]model.DeliveryRecord, error) {
	query := `
		SELECT id, recipient_name, recipient_kind, address, message_type, content, attempts, success, error_message, origin, created_at
		FROM deliveries
		WHERE recipient_name = $1 OR address = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	return r.query(ctx, query, recipient, model.NormalizePhone(recipient), clampLimit(limit))
}

func (r *DeliveryRepository) Stats(ctx context.Context) (*model.DeliveryStats, error) {
	stats := &model.DeliveryStats{}

	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0)
		FROM deliveries
	`).Scan(&stats.Total, &stats.Delivered)
	if err != nil {
		return nil, err
	}
	stats.Failed = stats.Total - stats.Delivered
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Delivered) / float64(stats.Total) * 100
	}

	// Selected as a plain column so both drivers scan it as a time.
	var last time.Time
	err = r.DB.QueryRowContext(ctx, `
		SELECT created_at FROM deliveries WHERE success = $1 ORDER BY created_at DESC LIMIT 1
	`, true).Scan(&last)
	switch {
	case err == nil:
		stats.LastSent = &last
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, err
	}
	return stats, nil
}

func (r *DeliveryRepository) query(ctx context.Context, query string, args ...interface{}) ([]model.DeliveryRecord, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.DeliveryRecord{}
	for rows.Next() {
		var rec model.DeliveryRecord
		var kind, msgType, origin string
		if err := rows.Scan(&rec.ID, &rec.RecipientName, &kind, &rec.Address, &msgType, &rec.Content, &rec.Attempts, &rec.Success, &rec.ErrorMessage, &origin, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.RecipientKind = model.RecipientKind(kind)
		rec.MessageType = model.MessageKind(msgType)
		rec.Origin = model.DeliveryOrigin(origin)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
