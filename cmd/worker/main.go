package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/bookmed-api/config"
	"github.com/jwalitptl/bookmed-api/internal/email"
	"github.com/jwalitptl/bookmed-api/internal/repository/postgres"
	"github.com/jwalitptl/bookmed-api/pkg/logger"
	redisbroker "github.com/jwalitptl/bookmed-api/pkg/messaging/redis"
	"github.com/jwalitptl/bookmed-api/pkg/metrics"
	"github.com/jwalitptl/bookmed-api/pkg/worker"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	outboxRepo := postgres.NewOutboxRepository(db)

	brokerLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	broker, err := redisbroker.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &brokerLogger)
	if err != nil {
		log.Fatal(err, "failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("bookmed", "worker")

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		cfg.Outbox.ToProcessorConfig(),
		log,
		m,
	)

	mailer := email.Service(email.NoopService{})
	if cfg.SMTP.Enabled {
		mailer = email.NewSMTPService(cfg.SMTP.ToEmailConfig())
	}
	notifier := worker.NewEmailNotifier(broker, mailer, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := notifier.Start(ctx); err != nil {
			log.Error(err, "email notifier stopped")
		}
	}()

	go processor.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker")
	cancel()
}
