package main

import (
	"context"

	"roombook/internal/viewings/events"
	"roombook/internal/viewings/handler"
	"roombook/internal/viewings/repository"
	"roombook/internal/viewings/service"
	"roombook/internal/viewings/validator"
	"roombook/pkg/app"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
)

const ServiceName = "viewings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	if cfg.LockBackend == config.LockBackendRedis {
		cfg.SetRedis()
	}

	cfg.Log.Info("Starting Viewings service")
	publisher := initPublisher(cfg)
	viewingService := initServices(cfg, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(func(context.Context) error {
		return publisher.Close()
	})
	serverApp.SetApp(handler.NewViewingHandler(viewingService, cfg.Log))
	serverApp.Run()
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.KafkaEnabled() {
		cfg.Log.Info("Kafka brokers not configured, viewing events are not published")
		return events.NewNoopPublisher()
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		MaxAttempts:  cfg.KafkaProducerMaxAttempts,
		BatchTimeout: cfg.KafkaProducerBatchTimeout,
		RequireAcks:  cfg.KafkaProducerRequireAcks,
		Compression:  cfg.KafkaProducerCompression,
	}, cfg.KafkaViewingsTopic, cfg.KafkaDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka.LoggingMiddleware(cfg.Log))

	cfg.Log.Info("Kafka producer initialized", "topic", producer.Topic(), "brokers", cfg.KafkaBrokers)
	return events.NewKafkaPublisher(producer)
}

func initServices(cfg *config.Config, publisher events.Publisher) service.ViewingService {
	viewingValidator := validator.NewViewingValidator(cfg.Log)
	viewingRepo := repository.NewMongoViewingRepository(cfg)
	roomLocker := repository.NewRoomLocker(cfg)

	viewingService := service.NewViewingService(
		viewingRepo,
		roomLocker,
		viewingValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Viewing service initialized",
		"database", cfg.MongoDatabaseName,
		"lock_backend", cfg.LockBackend,
	)
	return viewingService
}
