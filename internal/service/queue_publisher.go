package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/asesoriasalud/cotizaciones-api/internal/queue"
)

const cotizacionQueueName = "cotizacion.created"

// PublishCotizacionCreated publishes a CotizacionCreatedEvent to the
// "cotizacion.created" queue.  The function never panics; any error is
// logged and returned so the caller can ignore it, since quote submission
// must succeed even when the broker is down.  Messages are marked
// persistent.
func PublishCotizacionCreated(ctx context.Context, event q.CotizacionCreatedEvent) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent).  Durable so messages survive
	// broker restarts.
	if _, err := ch.QueueDeclare(cotizacionQueueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = ch.PublishWithContext(pubCtx, "", cotizacionQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
