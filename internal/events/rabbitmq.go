package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// Exchange is a durable topic exchange. Routing keys are event types, so
	// consumers bind to post.published, post.failed or post.#.
	Exchange = "creatortask.events"
	appID    = "creatortask"
)

var ErrPublisherClosed = errors.New("event publisher closed")

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RabbitMQPublisher struct {
	mu      sync.Mutex
	channel amqpChannel
	conn    io.Closer
}

// NewRabbitMQPublisher dials url and declares the events exchange.
func NewRabbitMQPublisher(url string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err == nil {
		err = ch.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil)
		if err != nil {
			_ = ch.Close()
		}
	}
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set up exchange %s: %w", Exchange, err)
	}

	return &RabbitMQPublisher{channel: ch, conn: conn}, nil
}

func (p *RabbitMQPublisher) PublishPostOutcome(ctx context.Context, e PostOutcome) error {
	msg, err := publishing(e)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishes.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return ErrPublisherClosed
	}
	if err := p.channel.PublishWithContext(ctx, Exchange, e.Type, false, false, msg); err != nil {
		return fmt.Errorf("publish %s for post %s: %w", e.Type, e.Payload.PostID, err)
	}
	return nil
}

// Close releases the channel and the connection. Safe to call more than once.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
		p.channel = nil
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
		p.conn = nil
	}
	return errors.Join(errs...)
}

func publishing(e PostOutcome) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		AppId:        appID,
		Type:         e.Type,
		MessageId:    e.Payload.PostID.String() + ":" + e.Type,
		Timestamp:    e.Timestamp,
		Body:         body,
	}, nil
}
