package main

import (
	"context"
	stdlog "log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/config"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/remedy"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/httpclient"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/logger"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/rabbitmq"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/redisstore"
)

// The worker process consumes escalation and remediation queues and
// supervises the external agent scripts. It shares no HTTP surface with the
// API beyond the alert and log endpoints it posts to.
func main() {
	cfg, err := config.LoadConfig("env.yaml")
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Init(cfg)
	log.Info().Msg("worker logger initialized")

	redisClient, err := redisstore.New(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	amqpConn, err := rabbitmq.NewConnection(cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}
	defer amqpConn.Close()

	if err := rabbitmq.SetupTopology(amqpConn, cfg.RabbitMQ); err != nil {
		log.Fatal().Err(err).Msg("failed to declare topology")
	}

	sink := remedy.NewLogSink(cfg.Worker.LogEndpoint, log)
	runner := remedy.NewRunner(sink, log)
	reporter := remedy.NewReporter(cfg.Worker.AlertEndpoint, httpclient.New(), log)
	worker := remedy.NewWorker(runner, reporter, sink, redisClient, cfg.Worker, log)

	escalationConsumer, err := rabbitmq.NewConsumer(amqpConn, cfg.RabbitMQ.EscalationQueue, cfg.Worker.Concurrency, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create escalation consumer")
	}
	remediationConsumer, err := rabbitmq.NewConsumer(amqpConn, cfg.RabbitMQ.RemediationQueue, cfg.Worker.Concurrency, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create remediation consumer")
	}

	go func() {
		if err := escalationConsumer.Consume(ctx, worker); err != nil {
			log.Error().Err(err).Msg("escalation consumer stopped")
		}
	}()
	go func() {
		if err := remediationConsumer.Consume(ctx, worker); err != nil {
			log.Error().Err(err).Msg("remediation consumer stopped")
		}
	}()

	log.Info().
		Str("escalation_queue", cfg.RabbitMQ.EscalationQueue).
		Str("remediation_queue", cfg.RabbitMQ.RemediationQueue).
		Int("concurrency", cfg.Worker.Concurrency).
		Msg("worker consuming")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	// Let in-flight jobs drain before closing channels.
	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := escalationConsumer.Shutdown(drainCtx); err != nil {
		log.Error().Err(err).Msg("escalation consumer shutdown failed")
	}
	if err := remediationConsumer.Shutdown(drainCtx); err != nil {
		log.Error().Err(err).Msg("remediation consumer shutdown failed")
	}

	log.Info().Msg("worker shutdown complete")
}
