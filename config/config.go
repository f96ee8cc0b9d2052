package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is read once from the environment at startup.
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFormat   string

	DBDriver string
	DBSeed   bool

	CORSOrigins []string
	UploadDir   string
	PageSize    int

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	OccupancyCacheTTL time.Duration

	RabbitMQURL       string
	ReservationsQueue string

	// LockLairOnBooking serialises book/reschedule per lair with a row lock.
	LockLairOnBooking bool

	OTLPEndpoint string
}

func Load() Config {
	return Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("APP_ENV", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		LogFormat:   envOrDefault("LOG_FORMAT", "text"),

		DBDriver: strings.ToLower(envOrDefault("DB_DRIVER", "mysql")),
		DBSeed:   envBool("DB_SEED", true),

		CORSOrigins: parseCorsOrigins(os.Getenv("CORS_ORIGINS")),
		UploadDir:   envOrDefault("UPLOAD_DIR", "./uploads"),
		PageSize:    envInt("PAGE_SIZE", 5),

		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           envInt("REDIS_DB", 0),
		OccupancyCacheTTL: envDuration("OCCUPANCY_CACHE_TTL", 5*time.Minute),

		RabbitMQURL:       strings.TrimSpace(os.Getenv("RABBITMQ_URL")),
		ReservationsQueue: envOrDefault("RESERVATION_EVENTS_QUEUE", "reservation.events"),

		LockLairOnBooking: envBool("BOOKING_LOCK_LAIR", false),

		OTLPEndpoint: strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}
}

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func envBool(key string, def bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}

func parseCorsOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
