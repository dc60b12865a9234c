package store

import (
	"fmt"

	"github.com/streadway/amqp"
)

// AMQPPublisher mirrors change-feed signals onto a RabbitMQ fanout exchange
// so out-of-process consumers can follow table changes as well.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// DialAMQP connects to RabbitMQ and declares the change exchange.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open RabbitMQ channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends the table name as a payload-free change marker.
func (p *AMQPPublisher) Publish(table string) error {
	return p.ch.Publish(p.exchange, table, false, false, amqp.Publishing{
		ContentType: "text/plain",
		Body:        []byte(table),
	})
}

// Close tears down channel and connection.
func (p *AMQPPublisher) Close() error {
	var errs []error
	if err := p.ch.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close RabbitMQ channel: %w", err))
	}
	if err := p.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close RabbitMQ connection: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("amqp shutdown: %v", errs)
	}
	return nil
}
