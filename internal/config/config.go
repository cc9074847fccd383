package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Agent settings
	Env        string
	ListenAddr string
	DataDir    string

	// Backend service base URLs
	AuthServiceURL      string
	CommunityServiceURL string
	ChatServiceURL      string
	AdminServiceURL     string

	// Realtime endpoints (one socket per backend domain)
	ChatSocketURL  string
	AdminSocketURL string

	// Realtime reconnect policy: fixed delay, retried indefinitely
	ReconnectDelay time.Duration

	// Interaction loader batching
	BatchSize  int
	BatchDelay time.Duration

	// HTTP client
	RequestTimeout time.Duration

	// Credentials
	CredentialsFile string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}

	return &Config{
		Env:        getEnv("ENV", "development"),
		ListenAddr: getEnv("AGENT_LISTEN_ADDR", "127.0.0.1:7800"),
		DataDir:    getEnv("AGENT_DATA_DIR", defaultDataDir()),

		AuthServiceURL:      getEnv("AUTH_SERVICE_URL", "http://localhost:8081"),
		CommunityServiceURL: getEnv("COMMUNITY_SERVICE_URL", "http://localhost:8083"),
		ChatServiceURL:      getEnv("CHAT_SERVICE_URL", "http://localhost:8084"),
		AdminServiceURL:     getEnv("ADMIN_SERVICE_URL", "http://localhost:8085"),

		ChatSocketURL:  getEnv("CHAT_SOCKET_URL", "ws://localhost:8084/ws"),
		AdminSocketURL: getEnv("ADMIN_SOCKET_URL", "ws://localhost:8085/ws"),

		ReconnectDelay: getEnvAsDuration("RECONNECT_DELAY", 4*time.Second),

		BatchSize:  getEnvAsInt("INTERACTION_BATCH_SIZE", 4),
		BatchDelay: getEnvAsDuration("INTERACTION_BATCH_DELAY", 75*time.Millisecond),

		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 15*time.Second),

		CredentialsFile: getEnv("CREDENTIALS_FILE", defaultCredentialsFile()),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".workhub-agent"
	}
	return home + "/.workhub-agent"
}

func defaultCredentialsFile() string {
	return defaultDataDir() + "/session.json"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
