package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"contacts_auth/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue publishes email messages to a durable queue for an external sender
// worker. Publishing counts as delivery from this service's point of view.
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

func NewQueue(urlForConn string, queueName string) (*Queue, error) {
	const op = "mailer.NewQueue"

	conn, err := amqp.Dial(urlForConn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q, err := ch.QueueDeclare(
		queueName, true, false, false, false, nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Queue{
		conn:    conn,
		channel: ch,
		queue:   q,
	}, nil
}

func (q *Queue) Send(ctx context.Context, msg models.EmailMessage) error {
	const op = "mailer.Queue.Send"

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return q.channel.PublishWithContext(
		ctx,
		"",
		q.queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

func (q *Queue) Close() {
	_ = q.channel.Close()
	_ = q.conn.Close()
}
