// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds everything the server reads from the environment. A .env file
// in the working directory is loaded by cmd/server before Load runs.
type Config struct {
	Port     string
	LogLevel logrus.Level

	TurnDuration time.Duration
	TurnPause    time.Duration

	// DatabaseURL enables the Postgres card catalog when set.
	DatabaseURL string

	// RedisAddr enables the turn history feed when set.
	RedisAddr        string
	RedisDB          int
	TurnHistoryQueue string

	// MsgRate is the sustained number of inbound messages per second allowed
	// on one connection, MsgBurst the bucket size.
	MsgRate  float64
	MsgBurst int

	// Historian settings, read by cmd/historian only.
	HistorianBatchSize int
	HistorianFlush     time.Duration
}

// Load reads the configuration from the process environment. Malformed values
// fall back to their defaults.
func Load() Config {
	return Config{
		Port:             getEnv("PORT", "3000"),
		LogLevel:         getEnvLevel("LOG_LEVEL", logrus.InfoLevel),
		TurnDuration:     getEnvDuration("TURN_DURATION", 60*time.Second),
		TurnPause:        getEnvDuration("TURN_PAUSE", 700*time.Millisecond),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		TurnHistoryQueue: getEnv("TURN_HISTORY_QUEUE", "taboo_turns"),
		MsgRate:          getEnvFloat("MSG_RATE", 10),
		MsgBurst:         getEnvInt("MSG_BURST", 20),

		HistorianBatchSize: getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:     time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
	}
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt retrieves an integer value from an environment variable or returns a default value.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}

func getEnvFloat(key string, defVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return defVal
	}
	return f
}

// getEnvDuration accepts Go duration strings such as "45s" or "1m30s".
func getEnvDuration(key string, defVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defVal
	}
	return d
}

func getEnvLevel(key string, defVal logrus.Level) logrus.Level {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	lvl, err := logrus.ParseLevel(v)
	if err != nil {
		return defVal
	}
	return lvl
}
