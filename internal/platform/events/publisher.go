// Package events publishes allocation domain events to RabbitMQ so downstream
// consumers (notifications, reporting) learn about admissions without polling.
// Publishing is best-effort: a broker failure is logged by the caller and must
// never fail the originating request.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys for allocation events.
const (
	KeyPatientAdmitted    = "patient.admitted"
	KeyPatientDischarged  = "patient.discharged"
	KeyPatientTransferred = "patient.transferred"
)

// AdmissionEvent is the wire form of an allocation state change.
type AdmissionEvent struct {
	AdmissionID string    `json:"admission_id"`
	PatientID   string    `json:"patient_id"`
	WardID      string    `json:"ward_id"`
	BedID       string    `json:"bed_id"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher holds a connection and channel to the broker and publishes JSON
// messages on a durable topic exchange. A nil *Publisher is valid and drops
// all events, so event publishing stays optional by configuration.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewPublisher dials the broker and declares the exchange.
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
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends ev under the given routing key. Messages are persistent so
// they survive broker restarts.
func (p *Publisher) Publish(ctx context.Context, key string, ev AdmissionEvent) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
