package main

import (
	"roomly/internal/users/handler"
	"roomly/internal/users/repository"
	"roomly/internal/users/service"
	"roomly/internal/users/validator"
	"roomly/pkg/app"
	"roomly/pkg/auth"
	"roomly/pkg/config"
	"roomly/pkg/middleware"
	"roomly/pkg/sanitizer"
)

const ServiceName = "users"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()

	cfg.Log.Info("Starting Users service")
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	userService := initServices(cfg, tokens)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewUserHandler(userService, middleware.NewAuthenticator(tokens, cfg.Log), cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config, tokens *auth.TokenManager) service.UserService {
	var userRepo repository.UserRepository
	if cfg.UsePostgres() {
		userRepo = repository.NewPostgresUserRepository(cfg.Client.Postgres)
	} else {
		userRepo = repository.NewMongoUserRepository(cfg)
	}

	userService := service.NewUserService(
		userRepo,
		validator.NewUserValidator(cfg.Log),
		sanitizer.NewPhoneNormalizer(cfg.PhoneRegions...),
		tokens,
		cfg,
	)

	cfg.Log.Info("User service initialized", "storage_driver", cfg.StorageDriver, "phone_regions", cfg.PhoneRegions)
	return userService
}
