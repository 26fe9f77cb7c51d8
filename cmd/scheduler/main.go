package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"medbook/internal/audit"
	bidsrepository "medbook/internal/bids/repository"
	"medbook/internal/scheduler"
	usersrepository "medbook/internal/users/repository"
	visitsrepository "medbook/internal/visits/repository"
	"medbook/pkg/config"
	"medbook/pkg/kafka"
)

const ServiceName = "scheduler"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting nightly scheduler")

	producer := initProducer(cfg)
	defer func() {
		if producer != nil {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close event producer", "error", err)
			}
		}
	}()

	recorder := audit.NewRecorder(audit.NewMongoRepository(cfg), producer, cfg.Log)
	visitRepo := visitsrepository.NewMongoVisitRepository(cfg)

	runner := scheduler.NewRunner(cfg,
		scheduler.NewExpander(visitRepo, cfg),
		scheduler.NewResolver(
			visitRepo,
			visitsrepository.NewMongoVisitLockRepository(cfg),
			bidsrepository.NewMongoBidRepository(cfg),
			usersrepository.NewMongoPatientRepository(cfg),
			recorder,
			cfg,
		),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		sig := <-shutdown
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	runner.Run(ctx)
	cfg.GracefulShutdown()
}

func initProducer(cfg *config.Config) *kafka.Producer {
	if !cfg.BookingEventsEnable {
		return nil
	}

	producer, err := kafka.NewProducer(kafka.LoadConfig(), cfg.BookingEventsTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event producer", "error", err)
	}

	cfg.Log.Info("Booking event producer initialized", "topic", cfg.BookingEventsTopic)
	return producer
}
