package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string

	// Appointment numbering
	SequenceBackend string // postgres, redis, dynamodb or memory
	DayCounterTable string

	// Clinic
	ClinicName     string
	ClinicTimezone string

	// Staff auth
	StaffJWTSecret string
	StaffTokenTTL  time.Duration
	AdminName      string
	AdminEmail     string
	AdminPassword  string

	// HTTP
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// Redis
	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	ScheduleCacheTTL time.Duration

	// Notifications
	UseMemoryQueue       bool
	NotificationQueueURL string
	WorkerCount          int
	EmailProvider        string
	SendGridAPIKey       string
	EmailFromAddress     string
	EmailFromName        string
	SlipBucket           string

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		SequenceBackend: strings.ToLower(getEnv("SEQUENCE_BACKEND", "postgres")),
		DayCounterTable: getEnv("DAY_COUNTER_TABLE", "appointment-day-counters"),

		ClinicName:     getEnv("CLINIC_NAME", "Clinic"),
		ClinicTimezone: getEnv("CLINIC_TIMEZONE", "Local"),

		StaffJWTSecret: getEnv("STAFF_JWT_SECRET", ""),
		StaffTokenTTL:  getEnvAsDuration("STAFF_TOKEN_TTL", 24*time.Hour),
		AdminName:      getEnv("BOOTSTRAP_ADMIN_NAME", "Administrator"),
		AdminEmail:     getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
		AdminPassword:  getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		ScheduleCacheTTL: getEnvAsDuration("SCHEDULE_CACHE_TTL", 10*time.Minute),

		UseMemoryQueue:       getEnvAsBool("USE_MEMORY_QUEUE", true),
		NotificationQueueURL: getEnv("NOTIFICATION_QUEUE_URL", ""),
		WorkerCount:          getEnvAsInt("WORKER_COUNT", 2),
		EmailProvider:        strings.ToLower(getEnv("EMAIL_PROVIDER", "stub")),
		SendGridAPIKey:       getEnv("SENDGRID_API_KEY", ""),
		EmailFromAddress:     getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", ""),
		SlipBucket:           getEnv("SLIP_BUCKET", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ClinicLocation resolves CLINIC_TIMEZONE. "Local" and "" mean the process zone.
func (c *Config) ClinicLocation() (*time.Location, error) {
	name := strings.TrimSpace(c.ClinicTimezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("config: invalid CLINIC_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}
