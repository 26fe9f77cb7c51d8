package main

import (
	"medbook/internal/audit"
	bidshandler "medbook/internal/bids/handler"
	bidsrepository "medbook/internal/bids/repository"
	bidsservice "medbook/internal/bids/service"
	usershandler "medbook/internal/users/handler"
	usersrepository "medbook/internal/users/repository"
	usersservice "medbook/internal/users/service"
	usersvalidator "medbook/internal/users/validator"
	visitshandler "medbook/internal/visits/handler"
	visitsrepository "medbook/internal/visits/repository"
	visitsservice "medbook/internal/visits/service"
	visitsvalidator "medbook/internal/visits/validator"
	"medbook/pkg/app"
	"medbook/pkg/config"
	"medbook/pkg/kafka"
)

const ServiceName = "server"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting appointment server")

	producer := initProducer(cfg)
	defer func() {
		if producer != nil {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close event producer", "error", err)
			}
		}
	}()

	auditRepo := audit.NewMongoRepository(cfg)
	recorder := audit.NewRecorder(auditRepo, producer, cfg.Log)

	patientRepo := usersrepository.NewMongoPatientRepository(cfg)
	doctorRepo := usersrepository.NewMongoDoctorRepository(cfg)
	adminRepo := usersrepository.NewMongoAdminRepository(cfg)
	visitRepo := visitsrepository.NewMongoVisitRepository(cfg)
	bidRepo := bidsrepository.NewMongoBidRepository(cfg)

	userService := usersservice.NewUserService(
		patientRepo,
		doctorRepo,
		adminRepo,
		visitRepo,
		usersvalidator.NewUserValidator(cfg.Log),
		recorder,
		cfg,
	)
	visitService := visitsservice.NewVisitService(
		visitRepo,
		patientRepo,
		doctorRepo,
		bidRepo,
		visitsvalidator.NewVisitValidator(cfg.Log),
		recorder,
		cfg,
	)
	bidService := bidsservice.NewBidService(bidRepo, patientRepo, visitRepo, cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		usershandler.NewUserHandler(userService, cfg.Log),
		visitshandler.NewVisitHandler(visitService, cfg.Log),
		bidshandler.NewBidHandler(bidService, cfg.Log),
		audit.NewHandler(auditRepo, recorder, cfg.Log),
	)
	serverApp.Run()
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
