package config

import (
	"database/sql"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cast"
)

type Config struct {
	Port             int
	DatabaseURL      string
	RedisAddr        string
	DataDir          string
	PublicBaseURL    string
	FeedSyncSchedule string
	SessionDays      int
}

func Load() *Config {
	return &Config{
		Port:             envInt("PORT", 8080),
		DatabaseURL:      env("DATABASE_URL", "postgres://signcast:signcast@db:5432/signcast?sslmode=disable"),
		RedisAddr:        env("REDIS_ADDR", ""),
		DataDir:          env("DATA_DIR", "/data"),
		PublicBaseURL:    env("PUBLIC_BASE_URL", "http://localhost:8080"),
		FeedSyncSchedule: env("FEED_SYNC_SCHEDULE", "*/15 * * * *"),
		SessionDays:      envInt("SESSION_DAYS", 30),
	}
}

// MergeFromDB overlays values from the settings table onto the env-derived
// config. Missing table or rows is not an error; env values stand.
func (c *Config) MergeFromDB(db *sql.DB) {
	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		log.Printf("config: skipping DB merge: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		switch key {
		case "public_base_url":
			c.PublicBaseURL = value
		case "feed_sync_schedule":
			c.FeedSyncSchedule = value
		case "session_days":
			if v := cast.ToInt(value); v > 0 {
				c.SessionDays = v
			}
		}
	}
}

func (c *Config) JobsEnabled() bool {
	return c.RedisAddr != ""
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
