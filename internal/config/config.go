package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerPort        string
	DatabaseURL       string
	RedisURL          string
	JWTSecret         string
	GatewayURL        string
	MediaURL          string
	FederationMaxSkew time.Duration
	SyncMaxLimit      int
	SendBuffer        int
	SnowflakeNode     int64
}

func LoadConfig() (*Config, error) {
	skewStr := getEnv("FEDERATION_MAX_SKEW", "300s")
	skew, err := time.ParseDuration(skewStr)
	if err != nil {
		return nil, errors.New("invalid FEDERATION_MAX_SKEW format")
	}

	syncLimit, err := strconv.Atoi(getEnv("SYNC_MAX_LIMIT", "1000"))
	if err != nil {
		return nil, errors.New("invalid SYNC_MAX_LIMIT format")
	}

	sendBuffer, err := strconv.Atoi(getEnv("SEND_BUFFER", "256"))
	if err != nil {
		return nil, errors.New("invalid SEND_BUFFER format")
	}

	nodeID, err := strconv.ParseInt(getEnv("SNOWFLAKE_NODE", "1"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid SNOWFLAKE_NODE format")
	}

	cfg := &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		GatewayURL:        getEnv("GATEWAY_URL", "wss://gateway.vox.chat"),
		MediaURL:          getEnv("MEDIA_URL", "https://media.vox.chat"),
		FederationMaxSkew: skew,
		SyncMaxLimit:      syncLimit,
		SendBuffer:        sendBuffer,
		SnowflakeNode:     nodeID,
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
