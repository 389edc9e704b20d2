// Package rabbitmq connects to RabbitMQ and declares the event exchange.
// The broker is optional; when configured, every order pipeline event is
// mirrored to a durable fanout exchange for external consumers (printers,
// displays, analytics). Subscribers bind their own queues.
package rabbitmq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"tokyojung/pkg/log"
)

// EventsExchange is the fanout exchange order pipeline events are mirrored to.
const EventsExchange = "tokyojung.events"

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Connect dials the broker and declares the events exchange.
func Connect(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = channel.ExchangeDeclare(
		EventsExchange, // name
		"fanout",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	logger := log.WithComponent("rabbitmq")
	logger.Info().Msg("connected to RabbitMQ")
	return &RabbitMQ{conn: conn, channel: channel}, nil
}

// Publish sends one JSON message to the events exchange.
func (r *RabbitMQ) Publish(body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.channel.PublishWithContext(ctx,
		EventsExchange, // exchange
		"",             // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
}

// Close shuts down the channel and connection.
func (r *RabbitMQ) Close() {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}
