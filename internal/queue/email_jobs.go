package queue

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EmailExchange = "one18.emails"
	EmailQueue    = "one18.emails.send"
	EmailDLQ      = "one18.emails.dlq"
	EmailRK       = "send"
	EmailDeadRK   = "dead"
)

// EmailJob is a fully rendered message; the worker only delivers it.
// Rendering at publish time keeps the worker free of order-model
// knowledge and makes DLQ'd jobs self-describing.
type EmailJob struct {
	To        string    `json:"to"`
	ToName    string    `json:"toName,omitempty"`
	Subject   string    `json:"subject"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"createdAt"`
}

func EnsureEmailTopology(ctx context.Context, qc *Client) error {
	if qc == nil {
		return nil
	}

	if err := qc.EnsureExchangeKind(EmailExchange, "direct"); err != nil {
		return err
	}

	if _, err := qc.EnsureQueue(EmailDLQ); err != nil {
		return err
	}
	if err := qc.BindQueue(EmailDLQ, EmailExchange, EmailDeadRK); err != nil {
		return err
	}

	_, err := qc.EnsureQueueWithArgs(EmailQueue, amqp.Table{
		"x-dead-letter-exchange":    EmailExchange,
		"x-dead-letter-routing-key": EmailDeadRK,
	})
	if err != nil {
		return err
	}
	return qc.BindQueue(EmailQueue, EmailExchange, EmailRK)
}

func PublishEmail(ctx context.Context, qc *Client, job EmailJob) error {
	if qc == nil {
		return nil
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	return qc.PublishJSON(ctx, EmailExchange, EmailRK, job)
}
