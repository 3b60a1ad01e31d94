package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const confirmTimeout = 5 * time.Second

type Publisher struct {
	ch       *amqp091.Channel
	exchange string
}

func NewPublisher(conn *amqp091.Connection, exchange string) (*Publisher, error) {

	if conn == nil {
		return nil, errors.New("AMQP connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, err
	}

	return &Publisher{
		ch:       ch,
		exchange: exchange,
	}, nil
}

// PublishJob marshals the envelope and publishes it with the given routing
// key, waiting for the broker confirm. The deferred confirmation is scoped
// to this message, so concurrent publishers never consume each other's acks.
func (p *Publisher) PublishJob(ctx context.Context, routingKey string, env JobEnvelope) error {
	if p.ch == nil {
		return errors.New("AMQP channel is nil")
	}

	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	confirmation, err := p.ch.PublishWithDeferredConfirmWithContext(
		ctx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return err
	}

	confirmCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	acked, err := confirmation.WaitContext(confirmCtx)
	if err != nil {
		return err
	}
	if !acked {
		return errors.New("confirmation not received for message")
	}

	return nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
