package app

import (
	"context"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/config"
	middle "github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/middleware"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/alert"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/channel"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/credential"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/monitor"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/probe"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/remedy"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/schedule"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/security"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/httpclient"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/rabbitmq"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/redisstore"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Container wires the API process: repositories, services, the schedule
// registry, and HTTP handlers.
type Container struct {
	DB          *pgxpool.Pool
	RedisClient *redisstore.Client
	AMQPConn    *amqp091.Connection
	Publisher   *rabbitmq.Publisher
	Registry    *schedule.Registry
	Logger      *zerolog.Logger

	monitorRepo *monitor.Repository

	monitorHandler    *monitor.Handler
	channelHandler    *channel.Handler
	credentialHandler *credential.Handler
	alertHandler      *alert.Handler
	remedyHandler     *remedy.Handler
	authMW            *middle.AuthMiddleware
}

func NewContainer(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, logger *zerolog.Logger) (*Container, error) {

	redisClient, err := redisstore.New(cfg.Redis)
	if err != nil {
		return nil, err
	}

	amqpConn, err := rabbitmq.NewConnection(cfg.RabbitMQ, logger)
	if err != nil {
		return nil, err
	}
	if err := rabbitmq.SetupTopology(amqpConn, cfg.RabbitMQ); err != nil {
		return nil, err
	}

	publisher, err := rabbitmq.NewPublisher(amqpConn, cfg.RabbitMQ.ExchangeName)
	if err != nil {
		return nil, err
	}

	validate := validator.New()
	probeClient := httpclient.New()

	monitorRepo := monitor.NewRepository(db, logger)
	channelRepo := channel.NewRepository(db, logger)
	credentialRepo := credential.NewRepository(db, logger)

	executor := probe.NewExecutor(
		monitorRepo,
		redisClient,
		publisher,
		probeClient,
		cfg.RabbitMQ.EscalationRoutingKey,
		cfg.Escalation.DebounceWindow,
		logger,
	)
	registry := schedule.NewRegistry(executor, logger)

	monitorSvc := monitor.NewService(monitorRepo, registry, redisClient, logger)
	channelSvc := channel.NewService(channelRepo, logger)
	credentialSvc := credential.NewService(credentialRepo, logger)
	dispatcher := alert.NewDispatcher(channelRepo, probeClient, logger)
	remedySvc := remedy.NewService(
		redisClient,
		credentialRepo,
		monitorRepo,
		publisher,
		cfg.RabbitMQ.RemediationRoutingKey,
		logger,
	)

	tokenSvc := security.NewTokenService(cfg.Auth)
	authMW := middle.NewAuthMiddleware(tokenSvc)

	return &Container{
		DB:          db,
		RedisClient: redisClient,
		AMQPConn:    amqpConn,
		Publisher:   publisher,
		Registry:    registry,
		Logger:      logger,

		monitorRepo: monitorRepo,

		monitorHandler:    monitor.NewHandler(monitorSvc, validate),
		channelHandler:    channel.NewHandler(channelSvc, validate),
		credentialHandler: credential.NewHandler(credentialSvc, validate),
		alertHandler:      alert.NewHandler(dispatcher, validate),
		remedyHandler:     remedy.NewHandler(remedySvc, validate),
		authMW:            authMW,
	}, nil
}

// ReconcileSchedules re-arms every active monitor after a restart so the
// active flag and the timer registry never diverge.
func (c *Container) ReconcileSchedules(ctx context.Context) error {
	return c.Registry.Reconcile(ctx, c.monitorRepo)
}

func (c *Container) Shutdown() error {
	c.Registry.Stop()

	if c.Publisher != nil {
		_ = c.Publisher.Close()
	}
	if c.AMQPConn != nil {
		_ = c.AMQPConn.Close()
	}
	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
	return nil
}
