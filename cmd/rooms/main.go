package main

import (
	"roomly/internal/rooms/handler"
	"roomly/internal/rooms/repository"
	"roomly/internal/rooms/service"
	"roomly/internal/rooms/validator"
	"roomly/pkg/app"
	"roomly/pkg/auth"
	"roomly/pkg/config"
	"roomly/pkg/middleware"
)

const ServiceName = "rooms"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()

	cfg.Log.Info("Starting Rooms service")
	roomService := initServices(cfg)
	authenticator := middleware.NewAuthenticator(auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL), cfg.Log)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewRoomHandler(roomService, authenticator, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.RoomService {
	var roomRepo repository.RoomRepository
	if cfg.UsePostgres() {
		roomRepo = repository.NewPostgresRoomRepository(cfg.Client.Postgres)
	} else {
		roomRepo = repository.NewMongoRoomRepository(cfg)
	}

	roomService := service.NewRoomService(roomRepo, validator.NewRoomValidator(cfg.Log), cfg)
	cfg.Log.Info("Room service initialized", "storage_driver", cfg.StorageDriver)
	return roomService
}
