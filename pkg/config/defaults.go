package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "medbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultMinCreditScore     = 60
	DefaultDefaultCreditScore = 100
	DefaultCancelLeadTime     = 24 * time.Hour
	DefaultRecurrenceLeadDays = 3
	DefaultTopBidsLimit       = 5
	DefaultVisitLockTTL       = 30 * time.Second

	DefaultBookingEventsTopic = "booking-events"

	DefaultPaginationLimit = 100
)
