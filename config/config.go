package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted by STORE_BACKEND and COLLABORATOR_BACKEND
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port           string
	AllowedOrigins []string

	// Storage
	StoreBackend     string
	AWSRegion        string
	DynamoDBTable    string
	DynamoDBEndpoint string

	// Check-ins, block list and typing indicators
	CollaboratorBackend string
	RedisURL            string
	RedisPassword       string
	RedisDB             int

	// Push channels
	NATSURL string

	// Auth
	JWTSecret string

	// Match engine
	MatchWindow       time.Duration
	InterestTTL       time.Duration
	MessageCap        int
	TypingTTL         time.Duration
	CheckInTTL        time.Duration
	MaxMessageLength  int
	DependencyTimeout time.Duration
	RequestTimeout    time.Duration
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️ Could not read .env file: %v", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),

		StoreBackend:     getEnv("STORE_BACKEND", BackendMemory),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		DynamoDBTable:    getEnv("DYNAMODB_TABLE", "VenueMatch"),
		DynamoDBEndpoint: getEnv("DYNAMODB_ENDPOINT", ""),

		CollaboratorBackend: getEnv("COLLABORATOR_BACKEND", BackendMemory),
		RedisURL:            getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),

		NATSURL:   getEnv("NATS_URL", ""),
		JWTSecret: getEnv("JWT_SECRET", ""),

		MatchWindow:       getEnvDuration("MATCH_WINDOW", 3*time.Hour),
		InterestTTL:       getEnvDuration("INTEREST_TTL", 24*time.Hour),
		MessageCap:        getEnvInt("MESSAGE_CAP", 3),
		TypingTTL:         getEnvDuration("TYPING_TTL", 4*time.Second),
		CheckInTTL:        getEnvDuration("CHECKIN_TTL", 6*time.Hour),
		MaxMessageLength:  getEnvInt("MAX_MESSAGE_LENGTH", 1000),
		DependencyTimeout: getEnvDuration("DEPENDENCY_TIMEOUT", 2*time.Second),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 5*time.Second),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendDynamoDB:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.CollaboratorBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown COLLABORATOR_BACKEND %q", c.CollaboratorBackend)
	}
	if c.MatchWindow <= 0 {
		return fmt.Errorf("MATCH_WINDOW must be positive, got %s", c.MatchWindow)
	}
	if c.InterestTTL <= 0 {
		return fmt.Errorf("INTEREST_TTL must be positive, got %s", c.InterestTTL)
	}
	if c.MessageCap <= 0 {
		return fmt.Errorf("MESSAGE_CAP must be positive, got %d", c.MessageCap)
	}
	if c.TypingTTL <= 0 || c.CheckInTTL <= 0 || c.DependencyTimeout <= 0 || c.RequestTimeout <= 0 {
		return fmt.Errorf("TYPING_TTL, CHECKIN_TTL, DEPENDENCY_TIMEOUT and REQUEST_TIMEOUT must be positive")
	}
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("MAX_MESSAGE_LENGTH must be positive, got %d", c.MaxMessageLength)
	}
	if c.StoreBackend == BackendDynamoDB && c.DynamoDBTable == "" {
		return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb backend")
	}
	return nil
}

// getEnv gets environment variable with fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("⚠️ Ignoring invalid %s=%q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("⚠️ Ignoring invalid %s=%q, using %s", key, value, defaultValue)
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
