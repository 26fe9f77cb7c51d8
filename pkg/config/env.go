package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvMinCreditScore      = "MIN_CREDIT_SCORE"
	EnvDefaultCreditScore  = "DEFAULT_CREDIT_SCORE"
	EnvCancelLeadTime      = "CANCEL_LEAD_TIME"
	EnvRecurrenceLeadDays  = "RECURRENCE_LEAD_DAYS"
	EnvTopBidsLimit        = "TOP_BIDS_LIMIT"
	EnvJobsRunOnStart      = "JOBS_RUN_ON_START"
	EnvVisitLockTTL        = "VISIT_LOCK_TTL"
	EnvBookingEventsTopic  = "BOOKING_EVENTS_TOPIC"
	EnvBookingEventsEnable = "BOOKING_EVENTS_ENABLE"
)
