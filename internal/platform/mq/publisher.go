// Package mq provides the RabbitMQ transport for patient lifecycle events:
// a durable topic exchange with one routing key per event kind.
package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pm/patient-platform/internal/events"
)

type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// PublishPatientEvent hands a lifecycle event to the broker. The routing key
// carries the event kind; the message id carries the patient id so ordering
// within a patient can be preserved by the broker topology.
func (p *Publisher) PublishPatientEvent(ctx context.Context, ev events.PatientEvent) error {
	pub, err := publishing(ev)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, ev.EventType.RoutingKey(), false, false, pub)
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func publishing(ev events.PatientEvent) (amqp.Publishing, error) {
	body, err := events.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.PatientID,
		Timestamp:    ev.EmittedAt,
		Type:         string(ev.EventType),
		Body:         body,
	}, nil
}
