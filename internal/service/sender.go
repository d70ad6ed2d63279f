package service

import (
	"context"
	"time"
	"wa-scheduler/internal/model"
)

// TextRequest asks the primitive to deliver a text at (or right after) At.
// Wait is how long the primitive may take to get ready (connect, load
// WhatsApp Web) before sending.
type TextRequest struct {
	To       model.Recipient
	Text     string
	At       time.Time
	Wait     time.Duration
	CloseTab bool
}

type ImageRequest struct {
	To       model.Recipient
	Path     string
	Caption  string
	Wait     time.Duration
	CloseTab bool
}

// Sender is the WhatsApp send primitive. Implementations live in
// internal/whatsapp (linked device) and internal/browser (WhatsApp Web).
type Sender interface {
	SendText(ctx context.Context, req TextRequest) error
	SendImage(ctx context.Context, req ImageRequest) error
}
