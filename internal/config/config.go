package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type Config struct {
	AppPort       string `validate:"required,numeric"`
	StorageDriver string `validate:"oneof=postgres file redis"`

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	CouponsFile string `validate:"required_if=StorageDriver file"`

	RedisAddr     string `validate:"required_if=StorageDriver redis"`
	RedisPassword string
	RedisDB       string `validate:"omitempty,numeric"`
	RedisPrefix   string

	ClaimRetention  string `validate:"oneof=history latest"`
	CooldownWindow  string
	CookieMaxAge    string
	FallbackCoupon  string
	EmergencyCoupon string

	CORSAllowedOrigins string
	RateRPS            string `validate:"omitempty,numeric"`
	RateBurst          string `validate:"omitempty,numeric"`

	KafkaBrokers           string `validate:"required_if=EventDrivenEnabled true"`
	KafkaClientID          string
	KafkaGroupID           string
	KafkaTopicPartitions   string
	KafkaReplicationFactor string
	EventDrivenEnabled     string `validate:"oneof=true false"`
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	return &Config{
		AppPort:       getEnv("APP_PORT", "8080"),
		StorageDriver: getEnv("STORAGE_DRIVER", StoragePostgres),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "coupondb"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		CouponsFile: getEnv("COUPONS_FILE", "coupons.json"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPrefix:   getEnv("REDIS_PREFIX", "coupon"),

		ClaimRetention:  getEnv("CLAIM_RETENTION", "history"),
		CooldownWindow:  getEnv("COOLDOWN_WINDOW", "1h"),
		CookieMaxAge:    getEnv("COOKIE_MAX_AGE", "24h"),
		FallbackCoupon:  getEnvAllowEmpty("FALLBACK_COUPON", "FALLBACK10"),
		EmergencyCoupon: getEnvAllowEmpty("EMERGENCY_COUPON", "EMERGENCY25"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		RateRPS:            getEnv("RATE_RPS", "5"),
		RateBurst:          getEnv("RATE_BURST", "10"),

		KafkaBrokers:           getEnv("KAFKA_BROKERS", "kafka:9092"),
		KafkaClientID:          getEnv("KAFKA_CLIENT_ID", "coupon-giveaway"),
		KafkaGroupID:           getEnv("KAFKA_GROUP_ID", "coupon-restock"),
		KafkaTopicPartitions:   getEnv("KAFKA_TOPIC_PARTITIONS", "3"),
		KafkaReplicationFactor: getEnv("KAFKA_REPLICATION_FACTOR", "1"),
		EventDrivenEnabled:     getEnv("EVENT_DRIVEN_ENABLED", "false"),
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.StorageDriver == StorageFile && c.ClaimRetention != "latest" {
		return fmt.Errorf("invalid config: STORAGE_DRIVER=file requires CLAIM_RETENTION=latest, got %q", c.ClaimRetention)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty distinguishes an unset variable from one set to "".
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

func (c *Config) EventDriven() bool {
	return c.EventDrivenEnabled == "true"
}

func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

func (c *Config) Cooldown() time.Duration {
	return parseDuration(c.CooldownWindow, time.Hour)
}

func (c *Config) CookieLifetime() time.Duration {
	return parseDuration(c.CookieMaxAge, 24*time.Hour)
}

func (c *Config) RedisDatabase() int {
	value, err := strconv.Atoi(c.RedisDB)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// RateLimit returns 0 requests per second when limiting is disabled.
func (c *Config) RateLimit() float64 {
	value, err := strconv.ParseFloat(c.RateRPS, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func (c *Config) RateLimitBurst() int {
	return parseInt(c.RateBurst, 10)
}

func (c *Config) TopicPartitions() int {
	return parseInt(c.KafkaTopicPartitions, 3)
}

func (c *Config) ReplicationFactor() int16 {
	value := parseInt(c.KafkaReplicationFactor, 1)
	return int16(value)
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
