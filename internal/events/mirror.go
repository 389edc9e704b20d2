package events

import (
	"encoding/json"

	"tokyojung/internal/models"
	"tokyojung/pkg/rabbitmq"
)

// AMQPMirror forwards every published event to the RabbitMQ fanout exchange
// so consumers outside the process (printers, displays) can follow along.
type AMQPMirror struct {
	broker *rabbitmq.RabbitMQ
}

func NewAMQPMirror(broker *rabbitmq.RabbitMQ) *AMQPMirror {
	return &AMQPMirror{broker: broker}
}

func (m *AMQPMirror) Send(event models.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return m.broker.Publish(body)
}
