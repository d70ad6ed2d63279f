package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
	"wa-scheduler/internal/model"

	"github.com/rs/zerolog"
)

// DeliveryLogger persists dispatch outcomes.
type DeliveryLogger interface {
	LogDelivery(ctx context.Context, rec *model.DeliveryRecord) error
}

// FailureNotifier is told about dispatches that ultimately failed.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, rec model.DeliveryRecord) error
}

// EventPublisher receives a copy of every outcome (websocket hub).
type EventPublisher interface {
	Publish(msgType string, data interface{})
}

type Result struct {
	Recipient model.Recipient   `json:"recipient"`
	Kind      model.MessageKind `json:"kind"`
	Attempts  int               `json:"attempts"`
	Delivered bool              `json:"delivered"`
	Err       error             `json:"-"`
}

type Dispatcher struct {
	Sender   Sender
	Settings model.Settings
	Log      zerolog.Logger

	Deliveries DeliveryLogger
	Notifier   FailureNotifier
	Events     EventPublisher

	// Now and Sleep are replaced in tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	mu sync.Mutex
}

func NewDispatcher(sender Sender, settings model.Settings, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		Sender:   sender,
		Settings: settings,
		Log:      log,
		Now:      time.Now,
		Sleep:    sleepContext,
	}
}

// Send delivers one scheduled message.
func (d *Dispatcher) Send(ctx context.Context, to model.Recipient, msg model.Message) Result {
	return d.dispatch(ctx, to, msg, model.OriginScheduled)
}

// SendNow delivers an ad-hoc message (test command, HTTP API).
func (d *Dispatcher) SendNow(ctx context.Context, to model.Recipient, msg model.Message) Result {
	return d.dispatch(ctx, to, msg, model.OriginAdhoc)
}

func (d *Dispatcher) dispatch(ctx context.Context, to model.Recipient, msg model.Message, origin model.DeliveryOrigin) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	res := Result{Recipient: to, Kind: msg.Kind()}
	log := d.Log.With().Str("recipient", to.String()).Str("kind", string(res.Kind)).Logger()

	if err := d.validate(msg); err != nil {
		res.Err = &DeliveryError{Recipient: to, Kind: res.Kind, Attempts: 0, Err: err}
		log.Error().Err(err).Msg("message rejected")
		d.record(ctx, res, msg, origin)
		return res
	}

	maxAttempts := d.Settings.Retries() + 1
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res.Attempts = attempt
		lastErr = d.attempt(ctx, to, msg)
		if lastErr == nil {
			res.Delivered = true
			log.Info().Int("attempt", attempt).Msg("message sent")
			d.record(ctx, res, msg, origin)
			return res
		}
		log.Warn().Err(lastErr).Int("attempt", attempt).Int("max_attempts", maxAttempts).Msg("send attempt failed")
		if attempt == maxAttempts || ctx.Err() != nil {
			break
		}
		if err := d.sleep(ctx, d.Settings.RetryBackoff()); err != nil {
			lastErr = err
			break
		}
	}
	if ctx.Err() != nil && !errors.Is(lastErr, ctx.Err()) {
		lastErr = fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
	}

	res.Err = &DeliveryError{Recipient: to, Kind: res.Kind, Attempts: res.Attempts, Err: lastErr}
	log.Error().Err(res.Err).Msg("message not delivered")
	d.record(ctx, res, msg, origin)
	return res
}

func (d *Dispatcher) attempt(ctx context.Context, to model.Recipient, msg model.Message) error {
	if d.Sender == nil {
		return errors.New("no sender configured")
	}
	wait := d.Settings.Wait()
	closeTab := d.Settings.ShouldCloseTab()

	if msg.Kind() == model.MessageImage {
		return d.Sender.SendImage(ctx, ImageRequest{
			To:       to,
			Path:     msg.ImagePath,
			Caption:  msg.Caption,
			Wait:     wait,
			CloseTab: closeTab,
		})
	}
	return d.Sender.SendText(ctx, TextRequest{
		To:       to,
		Text:     msg.Content,
		At:       d.now().Add(wait),
		Wait:     wait,
		CloseTab: closeTab,
	})
}

// validate runs the checks that make retrying pointless.
func (d *Dispatcher) validate(msg model.Message) error {
	switch msg.Kind() {
	case model.MessageText:
		return nil
	case model.MessageImage:
		info, err := os.Stat(msg.ImagePath)
		if err != nil {
			return fmt.Errorf("%w: image file %s: %v", ErrInvalidImage, msg.ImagePath, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrInvalidImage, msg.ImagePath)
		}
		if !d.Settings.AcceptsImage(msg.ImagePath) {
			return fmt.Errorf("%w: unsupported image format %s", ErrInvalidImage, msg.ImagePath)
		}
		return nil
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (d *Dispatcher) record(ctx context.Context, res Result, msg model.Message, origin model.DeliveryOrigin) {
	rec := model.DeliveryRecord{
		RecipientName: res.Recipient.Name,
		RecipientKind: res.Recipient.Kind,
		Address:       res.Recipient.Address,
		MessageType:   res.Kind,
		Content:       msg.Summary(),
		Attempts:      res.Attempts,
		Success:       res.Delivered,
		Origin:        origin,
		CreatedAt:     d.now(),
	}
	if res.Err != nil {
		rec.ErrorMessage = res.Err.Error()
	}

	// The outcome must be recorded even when ctx was cancelled mid-dispatch.
	bg := context.WithoutCancel(ctx)
	if d.Deliveries != nil {
		if err := d.Deliveries.LogDelivery(bg, &rec); err != nil {
			d.Log.Error().Err(err).Msg("failed to log delivery")
		}
	}
	if !rec.Success && d.Notifier != nil {
		if err := d.Notifier.NotifyFailure(bg, rec); err != nil {
			d.Log.Error().Err(err).Msg("failed to send failure notification")
		}
	}
	if d.Events != nil {
		d.Events.Publish("delivery", rec)
	}
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Dispatcher) sleep(ctx context.Context, dur time.Duration) error {
	if d.Sleep != nil {
		return d.Sleep(ctx, dur)
	}
	return sleepContext(ctx, dur)
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
