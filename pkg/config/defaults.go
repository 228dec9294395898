package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "parkspot"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultTokenTTL   = 7 * 24 * time.Hour
	DefaultBcryptCost = 10

	// Reminders fire this long before a reservation's end date.
	DefaultReminderLead = 30 * time.Minute

	// Advisory locks auto-expire so a crashed request cannot wedge a place.
	DefaultLockTTL = 10 * time.Second

	DefaultKafkaTopic = "parkspot.events"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
)
