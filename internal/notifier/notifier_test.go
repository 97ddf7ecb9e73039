package notifier

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/rabbitmq"
)

type fakeConsumer struct {
	handler rabbitmq.HandlerFunc
}

func (c *fakeConsumer) Consume(ctx context.Context, handler rabbitmq.HandlerFunc) error {
	c.handler = handler
	return nil
}

func TestMalformedAlertIsDropped(t *testing.T) {
	consumer := &fakeConsumer{}
	n := New(slog.New(slog.NewTextHandler(io.Discard, nil)), consumer, SMTPConfig{
		Recipients: []string{"ops@example.com"},
	})

	if err := n.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if consumer.handler == nil {
		t.Fatal("notifier did not subscribe a handler")
	}

	// Returning an error here would requeue the message forever.
	if err := consumer.handler(context.Background(), []byte("{not json")); err != nil {
		t.Errorf("malformed message returned error %v; want nil (ack and drop)", err)
	}
}

func TestAlertWithoutRecipientsIsDropped(t *testing.T) {
	consumer := &fakeConsumer{}
	n := New(slog.New(slog.NewTextHandler(io.Discard, nil)), consumer, SMTPConfig{})

	if err := n.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	body := []byte(`{"type":"high_failure_rate","execution_id":"run-1","message":"m"}`)
	if err := consumer.handler(context.Background(), body); err != nil {
		t.Errorf("alert without recipients returned error %v; want nil", err)
	}
}
