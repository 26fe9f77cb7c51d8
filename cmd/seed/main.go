package main

import (
	"context"
	"flag"
	"time"

	"medbook/internal/audit"
	usersrepository "medbook/internal/users/repository"
	usersservice "medbook/internal/users/service"
	usersvalidator "medbook/internal/users/validator"
	visitsrepository "medbook/internal/visits/repository"
	"medbook/pkg/config"
)

const ServiceName = "seed"

func main() {
	patients := flag.Int("patients", 0, "number of random patients to generate")
	doctors := flag.Int("doctors", 0, "number of random doctors to generate")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed for reproducible data")
	flag.Parse()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	patientRepo := usersrepository.NewMongoPatientRepository(cfg)
	doctorRepo := usersrepository.NewMongoDoctorRepository(cfg)
	adminRepo := usersrepository.NewMongoAdminRepository(cfg)

	userService := usersservice.NewUserService(
		patientRepo,
		doctorRepo,
		adminRepo,
		visitsrepository.NewMongoVisitRepository(cfg),
		usersvalidator.NewUserValidator(cfg.Log),
		audit.NewRecorder(audit.NewMongoRepository(cfg), nil, cfg.Log),
		cfg,
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := userService.EnsureDefaultAdmin(ctx); err != nil {
		cfg.Log.Fatal("Failed to ensure default admin", "error", err)
	}

	generator := usersservice.NewGenerator(patientRepo, doctorRepo, cfg, *seed)
	if *patients > 0 {
		if _, err := generator.GeneratePatients(ctx, *patients); err != nil {
			cfg.Log.Fatal("Failed to generate patients", "error", err)
		}
	}
	if *doctors > 0 {
		if _, err := generator.GenerateDoctors(ctx, *doctors); err != nil {
			cfg.Log.Fatal("Failed to generate doctors", "error", err)
		}
	}

	cfg.Log.Info("Seeding completed", "patients", *patients, "doctors", *doctors)
}
