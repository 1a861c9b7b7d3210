package main

import (
	"context"
	"errors"

	"roomly/internal/audit/consumer"
	"roomly/internal/audit/repository"
	"roomly/pkg/app"
	"roomly/pkg/config"
	"roomly/pkg/kafka"
	kafka_config "roomly/pkg/kafka/config"
	kafka_middleware "roomly/pkg/kafka/middleware"
)

const ServiceName = "booking-audit"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	var auditRepo repository.AuditRepository
	if cfg.UsePostgres() {
		auditRepo = repository.NewPostgresAuditRepository(cfg.Client.Postgres)
	} else {
		auditRepo = repository.NewMongoAuditRepository(cfg)
	}
	handler := consumer.NewAuditHandler(auditRepo, cfg.Log)

	eventConsumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.BookingEventsTopic,
		cfg.BookingAuditGroupID,
		cfg.BookingEventsDLQTopic,
		handler.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	serverApp := app.NewApplication(cfg)

	if kafkaCfg.EnableMiddleware {
		metrics := kafka_middleware.NewMetrics()
		eventConsumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		eventConsumer.Use(metrics.ConsumerMiddleware())
		serverApp.OnShutdown("kafka metrics", func(context.Context) error {
			metrics.Log(cfg.Log)
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := eventConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, kafka.ErrConsumerClosed) {
			cfg.Log.Error("Booking audit consumer stopped", "error", err)
		}
	}()
	serverApp.OnShutdown("kafka consumer", func(context.Context) error {
		cancel()
		return eventConsumer.Close()
	})

	cfg.Log.Info("Starting Booking audit service", "topic", cfg.BookingEventsTopic, "group_id", cfg.BookingAuditGroupID)
	// Only the health endpoints are served.
	serverApp.SetApp()
	serverApp.Run()
}
