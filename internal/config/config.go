package config

import (
	"os"
	"time"
)

type Config struct {
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	HTTPPort      string
	RoomTTL       time.Duration
	RoomMaxIdle   time.Duration
	SweepInterval time.Duration
}

func Load() *Config {
	return &Config{
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "mathbattle"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		RoomTTL:       getDuration("ROOM_TTL", 24*time.Hour),
		RoomMaxIdle:   getDuration("ROOM_MAX_IDLE", 30*time.Minute),
		SweepInterval: getDuration("SWEEP_INTERVAL", 5*time.Minute),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
