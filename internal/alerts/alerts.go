// Package alerts publishes operational alerts raised by the price-sync job.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/models"
)

type Publisher interface {
	PublishJSON(ctx context.Context, msg any) error
}

// Sink sends alerts to the alerts queue, where the notifier picks them
// up for email delivery. Delivery is best effort; callers must not let
// a failed send alter the outcome of a run.
type Sink struct {
	publisher Publisher
}

func NewSink(publisher Publisher) *Sink {
	return &Sink{publisher: publisher}
}

func (s *Sink) Send(ctx context.Context, alertType models.AlertType, executionID, message string) error {
	const op = "alerts.Send"

	alert := models.Alert{
		Type:        alertType,
		ExecutionID: executionID,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.publisher.PublishJSON(ctx, alert); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
