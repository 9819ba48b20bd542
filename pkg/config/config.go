package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageFirestore = "firestore"
	StorageMemory    = "memory"
)

type Config struct {
	ServerPort         string
	Environment        string
	StorageDriver      string
	FirebaseProject    string
	ServiceAccountRaw  string
	ServiceAccountPath string
	AuthEnabled        bool
	MetricsEnabled     bool
	SendRatePerMinute  int
}

// ClientConfig drives the messaging core and the terminal client.
type ClientConfig struct {
	APIBaseURL          string
	APITimeout          time.Duration
	MessagePollInterval time.Duration
	UnreadPollInterval  time.Duration
	SessionUserID       string
	SessionRole         string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory)),
		FirebaseProject:    getEnv("FIREBASE_PROJECT_ID", ""),
		ServiceAccountRaw:  getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		AuthEnabled:        getEnvAsBool("AUTH_ENABLED", false),
		MetricsEnabled:     getEnvAsBool("METRICS_ENABLED", true),
		SendRatePerMinute:  int(getEnvAsInt64("SEND_RATE_PER_MINUTE", 10)),
	}

	return config, nil
}

func LoadClient() (*ClientConfig, error) {
	godotenv.Load()

	return &ClientConfig{
		APIBaseURL:          strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080/v1"), "/"),
		APITimeout:          getEnvAsDuration("API_TIMEOUT", 15*time.Second),
		MessagePollInterval: getEnvAsDuration("MESSAGE_POLL_INTERVAL", 2*time.Second),
		UnreadPollInterval:  getEnvAsDuration("UNREAD_POLL_INTERVAL", 5*time.Second),
		SessionUserID:       getEnv("SESSION_USER_ID", ""),
		SessionRole:         strings.ToUpper(getEnv("SESSION_ROLE", "CUSTOMER")),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
