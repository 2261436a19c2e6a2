// Package queue_publisher publishes domain events to RabbitMQ.  Errors are
// logged and returned so callers can ignore them without interrupting the
// booking flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kijani-trails/conservation-booking/internal/logger"
	q "github.com/kijani-trails/conservation-booking/internal/queue"
)

// Publisher sends booking events to the broker at url.  Each publish opens
// its own connection; booking volume does not justify a pooled channel.
type Publisher struct {
	url string
}

// New returns a publisher for the broker at url.
func New(url string) *Publisher { return &Publisher{url: url} }

// PublishBookingCreated publishes ev as a persistent message on the
// booking.created queue.
func (p *Publisher) PublishBookingCreated(ctx context.Context, ev q.BookingCreatedEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		logger.Log.Warn("[rabbitmq] dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Log.Warn("[rabbitmq] channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.BookingCreatedQueue, true, false, false, false, nil); err != nil {
		logger.Log.Warn("[rabbitmq] queue declare failed", "err", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.BookingID,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.BookingCreatedQueue, false, false, pub); err != nil {
		logger.Log.Warn("[rabbitmq] publish failed", "err", err, "booking_id", ev.BookingID)
		return err
	}
	return nil
}
