package model

import "time"

type DeliveryOrigin string

const (
	OriginScheduled DeliveryOrigin = "scheduled"
	OriginAdhoc     DeliveryOrigin = "adhoc"
)

// DeliveryRecord is one row of the delivery log.
type DeliveryRecord struct {
	ID            string         `json:"id"`
	RecipientName string         `json:"recipient_name"`
	RecipientKind RecipientKind  `json:"recipient_kind"`
	Address       string         `json:"address"`
	MessageType   MessageKind    `json:"message_type"`
	Content       string         `json:"content"`
	Attempts      int            `json:"attempts"`
	Success       bool           `json:"success"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	Origin        DeliveryOrigin `json:"origin"`
	CreatedAt     time.Time      `json:"created_at"`
}

type DeliveryStats struct {
	Total       int        `json:"total"`
	Delivered   int        `json:"delivered"`
	Failed      int        `json:"failed"`
	SuccessRate float64    `json:"success_rate"`
	LastSent    *time.Time `json:"last_sent"`
}
