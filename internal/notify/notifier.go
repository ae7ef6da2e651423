package notify

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"one18-order-service/internal/ordering"
	"one18-order-service/internal/queue"
)

type NotifierConfig struct {
	BakeryName  string
	BakeryPhone string
	AdminEmail  string
}

// Notifier publishes rendered email jobs to the broker. Without a
// broker it falls back to sending directly. Every path logs and
// swallows failures: the triggering transaction already committed.
type Notifier struct {
	qc     *queue.Client
	mailer *Mailer
	cfg    NotifierConfig
	log    *zap.Logger
}

func NewNotifier(qc *queue.Client, mailer *Mailer, cfg NotifierConfig, log *zap.Logger) *Notifier {
	return &Notifier{qc: qc, mailer: mailer, cfg: cfg, log: log}
}

func (n *Notifier) OrderAdmitted(ctx context.Context, order *ordering.Order) {
	subject, body := orderConfirmationEmail(n.cfg.BakeryName, order)
	n.enqueue(ctx, order.Customer.Email, order.Customer.FirstName, subject, body)

	if n.cfg.AdminEmail != "" {
		subject, body = newOrderStaffEmail(n.cfg.BakeryName, order)
		n.enqueue(ctx, n.cfg.AdminEmail, n.cfg.BakeryName, subject, body)
	}
}

func (n *Notifier) PaymentReceived(ctx context.Context, order *ordering.Order) {
	subject, body := paymentReceivedEmail(n.cfg.BakeryName, order)
	n.enqueue(ctx, order.Customer.Email, order.Customer.FirstName, subject, body)
}

func (n *Notifier) PaymentRejected(ctx context.Context, order *ordering.Order) {
	subject, body := paymentRejectedEmail(n.cfg.BakeryName, n.cfg.BakeryPhone, order)
	n.enqueue(ctx, order.Customer.Email, order.Customer.FirstName, subject, body)
}

func (n *Notifier) enqueue(ctx context.Context, to, toName, subject, body string) {
	if to == "" {
		return
	}
	job := queue.EmailJob{To: to, ToName: toName, Subject: subject, HTML: body}

	if n.qc != nil {
		if err := queue.PublishEmail(ctx, n.qc, job); err != nil {
			n.log.Error("failed to enqueue email job",
				zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		}
		return
	}

	if n.mailer == nil {
		return
	}
	if err := n.mailer.Send(ctx, to, toName, subject, body); err != nil {
		n.log.Error("failed to send email",
			zap.String("to", to), zap.String("subject", subject), zap.Error(err))
	}
}

// HandleEmailJob is the broker worker callback. A returned error makes
// the worker retry and eventually dead-letter the job.
func HandleEmailJob(mailer *Mailer, log *zap.Logger) queue.HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		var job queue.EmailJob
		if err := json.Unmarshal(body, &job); err != nil {
			log.Warn("discarding malformed email job", zap.Error(err))
			return nil
		}
		if err := mailer.Send(ctx, job.To, job.ToName, job.Subject, job.HTML); err != nil {
			log.Warn("email delivery failed", zap.String("to", job.To), zap.Error(err))
			return err
		}
		log.Info("email sent", zap.String("to", job.To), zap.String("subject", job.Subject))
		return nil
	}
}
