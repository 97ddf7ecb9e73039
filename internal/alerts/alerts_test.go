package alerts

import (
	"context"
	"errors"
	"testing"

	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/models"
)

type fakePublisher struct {
	published []any
	err       error
}

func (p *fakePublisher) PublishJSON(ctx context.Context, msg any) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

func TestSend(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewSink(pub)

	err := sink.Send(context.Background(), models.AlertHighFailureRate, "run-1", "failure rate 80%")
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if len(pub.published) != 1 {
		t.Fatalf("published %d messages; want 1", len(pub.published))
	}

	alert, ok := pub.published[0].(models.Alert)
	if !ok {
		t.Fatalf("published %T; want models.Alert", pub.published[0])
	}
	if alert.Type != models.AlertHighFailureRate {
		t.Errorf("alert type = %q; want %q", alert.Type, models.AlertHighFailureRate)
	}
	if alert.ExecutionID != "run-1" {
		t.Errorf("execution id = %q; want %q", alert.ExecutionID, "run-1")
	}
	if alert.CreatedAt.IsZero() {
		t.Error("alert timestamp not set")
	}
}

func TestSendPropagatesPublishError(t *testing.T) {
	wantErr := errors.New("channel closed")
	sink := NewSink(&fakePublisher{err: wantErr})

	err := sink.Send(context.Background(), models.AlertStoreFailure, "run-1", "boom")
	if !errors.Is(err, wantErr) {
		t.Fatalf("got error %v; want %v", err, wantErr)
	}
}
