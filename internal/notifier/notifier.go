// Package notifier consumes alert messages from the alerts queue and
// delivers them to operators by email.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sl "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/logger"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/models"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/rabbitmq"

	"gopkg.in/gomail.v2"
)

type Consumer interface {
	Consume(ctx context.Context, handler rabbitmq.HandlerFunc) error
}

type SMTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	Recipients []string
}

type Notifier struct {
	log      *slog.Logger
	consumer Consumer
	dialer   *gomail.Dialer
	cfg      SMTPConfig
}

func New(log *slog.Logger, consumer Consumer, cfg SMTPConfig) *Notifier {
	return &Notifier{
		log:      log,
		consumer: consumer,
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		cfg:      cfg,
	}
}

// Run subscribes to the alerts queue and sends one email per alert.
func (n *Notifier) Run(ctx context.Context) error {
	return n.consumer.Consume(ctx, n.handleMessage)
}

func (n *Notifier) handleMessage(ctx context.Context, body []byte) error {
	const op = "notifier.handleMessage"

	var alert models.Alert

	// A malformed message would be redelivered forever if nacked, so it
	// is logged and dropped. Only transient delivery failures requeue.
	if err := json.Unmarshal(body, &alert); err != nil {
		n.log.Error("dropping malformed alert message",
			slog.String("op", op),
			sl.Err(err),
		)
		return nil
	}

	if len(n.cfg.Recipients) == 0 {
		n.log.Warn("no alert recipients configured, dropping alert",
			slog.String("alert_type", string(alert.Type)),
		)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", n.cfg.Recipients...)
	m.SetHeader("Subject", subject(alert.Type))
	m.SetBody("text/plain", renderBody(alert))

	if err := n.dialer.DialAndSend(m); err != nil {
		n.log.Error("failed to send alert email",
			slog.String("alert_type", string(alert.Type)),
			sl.Err(err),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	n.log.Info("alert email sent",
		slog.String("alert_type", string(alert.Type)),
		slog.String("execution_id", alert.ExecutionID),
	)

	return nil
}

func subject(t models.AlertType) string {
	switch t {
	case models.AlertAuthenticationFailure:
		return "[price-sync] Amazon authentication failure"
	case models.AlertHighFailureRate:
		return "[price-sync] High failure rate"
	case models.AlertConfigFailure:
		return "[price-sync] Configuration failure"
	case models.AlertStoreFailure:
		return "[price-sync] Product store failure"
	default:
		return "[price-sync] Execution failure"
	}
}

func renderBody(alert models.Alert) string {
	return fmt.Sprintf(
		"Alert:        %s\nExecution ID: %s\nTime:         %s\n\n%s\n",
		alert.Type,
		alert.ExecutionID,
		alert.CreatedAt.Format("2006-01-02 15:04:05 MST"),
		alert.Message,
	)
}
