package service

import (
	"errors"
	"fmt"
	"wa-scheduler/internal/model"
)

// ErrInvalidImage marks image messages that were rejected before any attempt.
var ErrInvalidImage = errors.New("invalid image")

// DeliveryError is reported once a dispatch has failed for good.
type DeliveryError struct {
	Recipient model.Recipient
	Kind      model.MessageKind
	Attempts  int
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery of %s message to %s failed after %d attempt(s): %v", e.Kind, e.Recipient, e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
