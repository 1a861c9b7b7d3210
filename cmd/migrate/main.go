package main

import (
	"context"
	"time"

	mongoMigration "roomly/internal/migrations/mongo"
	postgresMigration "roomly/internal/migrations/postgres"
	"roomly/internal/users/repository"
	"roomly/internal/users/service"
	"roomly/internal/users/validator"
	"roomly/pkg/auth"
	"roomly/pkg/config"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/model"
	"roomly/pkg/sanitizer"
)

const JobName = "migrate"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetStore()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting migration job", "storage_driver", cfg.StorageDriver)

	var err error
	if cfg.UsePostgres() {
		err = postgresMigration.RunMigration(ctx, cfg.Client.Postgres, cfg.Log)
	} else {
		err = mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log)
	}
	if err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Migration failed", "error", err)
	}

	if cfg.SeedAdminEnabled() {
		if err := seedAdmin(ctx, cfg); err != nil {
			cfg.GracefulShutdown()
			cfg.Log.Fatal("Admin seed failed", "error", err)
		}
	}

	cfg.Log.Info("Migration completed successfully")
}

// seedAdmin creates the first administrator. An existing user with the same
// id number or phone counts as already seeded.
func seedAdmin(ctx context.Context, cfg *config.Config) error {
	var userRepo repository.UserRepository
	if cfg.UsePostgres() {
		userRepo = repository.NewPostgresUserRepository(cfg.Client.Postgres)
	} else {
		userRepo = repository.NewMongoUserRepository(cfg)
	}

	users := service.NewUserService(
		userRepo,
		validator.NewUserValidator(cfg.Log),
		sanitizer.NewPhoneNormalizer(cfg.PhoneRegions...),
		auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL),
		cfg,
	)

	admin := &model.User{
		Name:     cfg.SeedAdminName,
		IDNumber: cfg.SeedAdminIDNumber,
		Phone:    cfg.SeedAdminPhone,
		Role:     model.RoleAdmin,
	}
	err := users.Create(ctx, admin)
	if apperrors.HasCode(err, apperrors.CodeConflict) {
		cfg.Log.Info("Seed admin already exists", "id_number", admin.IDNumber)
		return nil
	}
	return err
}
