package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"wa-scheduler/internal/model"

	"github.com/rs/zerolog"
)

const maxAttempts = 3

// Notifier posts a JSON payload to a webhook when a delivery fails for good.
type Notifier struct {
	URL    string
	Client *http.Client
	Log    zerolog.Logger

	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
}

func NewNotifier(url string, log zerolog.Logger) *Notifier {
	return &Notifier{
		URL: url,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		Log:     log,
		Backoff: time.Second,
	}
}

type FailurePayload struct {
	Event         string    `json:"event"`
	ID            string    `json:"id,omitempty"`
	RecipientName string    `json:"recipient_name"`
	RecipientKind string    `json:"recipient_kind"`
	Address       string    `json:"address"`
	MessageType   string    `json:"message_type"`
	Content       string    `json:"content"`
	Attempts      int       `json:"attempts"`
	Error         string    `json:"error"`
	Origin        string    `json:"origin"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewFailurePayload(rec model.DeliveryRecord) FailurePayload {
	return FailurePayload{
		Event:         "delivery_failed",
		ID:            rec.ID,
		RecipientName: rec.RecipientName,
		RecipientKind: string(rec.RecipientKind),
		Address:       rec.Address,
		MessageType:   string(rec.MessageType),
		Content:       rec.Content,
		Attempts:      rec.Attempts,
		Error:         rec.ErrorMessage,
		Origin:        string(rec.Origin),
		Timestamp:     rec.CreatedAt,
	}
}

// NotifyFailure is a no-op when no URL is configured.
func (n *Notifier) NotifyFailure(ctx context.Context, rec model.DeliveryRecord) error {
	if n == nil || n.URL == "" {
		return nil
	}

	jsonData, err := json.Marshal(NewFailurePayload(rec))
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			if err := sleep(ctx, time.Duration(i)*n.Backoff); err != nil {
				return err
			}
		}
		lastErr = n.post(ctx, jsonData)
		if lastErr == nil {
			n.Log.Debug().Str("url", n.URL).Int("attempt", i+1).Msg("failure notification delivered")
			return nil
		}
		n.Log.Warn().Err(lastErr).Int("attempt", i+1).Msg("webhook attempt failed")
	}

	return fmt.Errorf("failed to send webhook after retries: %w", lastErr)
}

func (n *Notifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status: %d", resp.StatusCode)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
