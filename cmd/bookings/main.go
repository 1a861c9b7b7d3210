package main

import (
	"context"

	"roomly/internal/bookings/events"
	"roomly/internal/bookings/handler"
	"roomly/internal/bookings/jobs"
	"roomly/internal/bookings/repository"
	"roomly/internal/bookings/service"
	"roomly/internal/bookings/validator"
	roomsrepo "roomly/internal/rooms/repository"
	roomsservice "roomly/internal/rooms/service"
	roomsvalidator "roomly/internal/rooms/validator"
	usersrepo "roomly/internal/users/repository"
	usersservice "roomly/internal/users/service"
	usersvalidator "roomly/internal/users/validator"
	"roomly/pkg/app"
	"roomly/pkg/auth"
	"roomly/pkg/config"
	"roomly/pkg/kafka"
	kafka_config "roomly/pkg/kafka/config"
	kafka_middleware "roomly/pkg/kafka/middleware"
	"roomly/pkg/middleware"
	"roomly/pkg/sanitizer"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication(cfg)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	bookingService, lockRepo := initServices(cfg, tokens, initPublisher(cfg, serverApp))

	sweeper, err := jobs.NewLockSweeper(lockRepo, cfg.LockSweepSchedule, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create lock sweeper", "error", err)
	}
	sweeper.Start()
	serverApp.OnShutdown("lock sweeper", sweeper.Stop)

	serverApp.SetApp(handler.NewBookingHandler(bookingService, middleware.NewAuthenticator(tokens, cfg.Log), cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config, tokens *auth.TokenManager, publisher events.Publisher) (service.BookingService, repository.BookingLockRepository) {
	var (
		bookingRepo repository.BookingRepository
		lockRepo    repository.BookingLockRepository
		roomRepo    roomsrepo.RoomRepository
		userRepo    usersrepo.UserRepository
	)
	if cfg.UsePostgres() {
		bookingRepo = repository.NewPostgresBookingRepository(cfg.Client.Postgres)
		lockRepo = repository.NewPostgresBookingLockRepository(cfg.Client.Postgres)
		roomRepo = roomsrepo.NewPostgresRoomRepository(cfg.Client.Postgres)
		userRepo = usersrepo.NewPostgresUserRepository(cfg.Client.Postgres)
	} else {
		bookingRepo = repository.NewMongoBookingRepository(cfg)
		lockRepo = repository.NewMongoBookingLockRepository(cfg)
		roomRepo = roomsrepo.NewMongoRoomRepository(cfg)
		userRepo = usersrepo.NewMongoUserRepository(cfg)
	}

	rooms := roomsservice.NewRoomService(roomRepo, roomsvalidator.NewRoomValidator(cfg.Log), cfg)
	users := usersservice.NewUserService(
		userRepo,
		usersvalidator.NewUserValidator(cfg.Log),
		sanitizer.NewPhoneNormalizer(cfg.PhoneRegions...),
		tokens,
		cfg,
	)

	bookingService := service.NewBookingService(
		bookingRepo,
		lockRepo,
		validator.NewBookingValidator(cfg.Log),
		rooms,
		users,
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "storage_driver", cfg.StorageDriver)
	return bookingService, lockRepo
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, booking events will not be published")
		return events.NewNoopPublisher()
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	if kafkaCfg.EnableMiddleware {
		metrics := kafka_middleware.NewMetrics()
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(metrics.ProducerMiddleware())
		serverApp.OnShutdown("kafka metrics", func(context.Context) error {
			metrics.Log(cfg.Log)
			return nil
		})
	}

	publisher := events.NewKafkaPublisher(producer, kafkaCfg.PublishTimeout)
	serverApp.OnShutdown("kafka producer", func(context.Context) error {
		return publisher.Close()
	})
	return publisher
}
