package rabbitmq

import (
	"errors"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/config"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

func NewConnection(rmqCfg *config.RabbitMQConfig, log *zerolog.Logger) (*amqp091.Connection, error) {

	var conn *amqp091.Connection
	var err error
	for i := range 5 {
		conn, err = amqp091.Dial(rmqCfg.BrokerLink)
		if err == nil {
			return conn, nil
		}
		time.Sleep(2 * time.Second)
		log.Warn().Int("attempt", i+1).Msg("rabbitmq reconnection attempt")
	}
	log.Error().Err(err).Msg("failed to connect to rabbitmq after 5 attempts")
	return nil, errors.New("failed to connect to rabbitmq")
}

// SetupTopology declares the job exchange and binds the escalation and
// remediation queues. Safe to call from every process; declarations are
// idempotent.
func SetupTopology(conn *amqp091.Connection, rmqCfg *config.RabbitMQConfig) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		rmqCfg.ExchangeName,
		rmqCfg.ExchangeType,
		true, false, false, false, nil,
	); err != nil {
		return err
	}

	queues := []struct {
		name string
		key  string
	}{
		{rmqCfg.EscalationQueue, rmqCfg.EscalationRoutingKey},
		{rmqCfg.RemediationQueue, rmqCfg.RemediationRoutingKey},
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(
			q.name,
			true, false, false, false, nil,
		); err != nil {
			return err
		}

		if err := ch.QueueBind(
			q.name,
			q.key,
			rmqCfg.ExchangeName,
			false, nil,
		); err != nil {
			return err
		}
	}

	return nil
}
