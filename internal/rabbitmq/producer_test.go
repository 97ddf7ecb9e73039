package rabbitmq

import (
	"context"
	"strings"
	"testing"
)

func TestPublishJSONWrapsMarshalError(t *testing.T) {
	// The marshal failure happens before the channel is touched, so no
	// connection is needed.
	p := NewProducer(nil, "alerts")

	err := p.PublishJSON(context.Background(), func() {})
	if err == nil {
		t.Fatal("PublishJSON accepted an unmarshalable message")
	}
	if !strings.Contains(err.Error(), "rabbitmq.PublishJSON") {
		t.Errorf("error %q not wrapped with operation name", err)
	}
}
