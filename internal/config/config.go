package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultDatabaseURL     = "lodgedesk.db"
	defaultNightCutoffHour = 6
	defaultFeedTimeout     = 15 * time.Second
	defaultSyncCron        = "*/30 * * * *"
	defaultAllocRetries    = 3
)

type Config struct {
	DatabaseURL      string
	HTTPAddr         string
	NightCutoffHour  int
	BusinessTimeZone *time.Location // the clock the night-audit cutoff reads
	FeedFetchTimeout time.Duration
	FeedSyncCron     string // empty disables the scheduled sync
	AllocMaxRetries  int
}

func Load() Config {
	cfg := Config{
		DatabaseURL:      envString("DATABASE_URL", defaultDatabaseURL),
		HTTPAddr:         envString("HTTP_ADDR", defaultHTTPAddr),
		NightCutoffHour:  envInt("NIGHT_CUTOFF_HOUR", defaultNightCutoffHour),
		BusinessTimeZone: envLocation("BUSINESS_TZ", time.UTC),
		FeedFetchTimeout: envDuration("FEED_FETCH_TIMEOUT", defaultFeedTimeout),
		FeedSyncCron:     envString("FEED_SYNC_CRON", defaultSyncCron),
		AllocMaxRetries:  envInt("ALLOC_MAX_RETRIES", defaultAllocRetries),
	}
	if cfg.NightCutoffHour < 0 || cfg.NightCutoffHour > 23 {
		log.Printf("config NIGHT_CUTOFF_HOUR=%d out of range, using %d", cfg.NightCutoffHour, defaultNightCutoffHour)
		cfg.NightCutoffHour = defaultNightCutoffHour
	}
	return cfg
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config %s=%q is not an integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func envLocation(key string, fallback *time.Location) *time.Location {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		log.Printf("config %s=%q is not a known time zone, using %s", key, v, fallback)
		return fallback
	}
	return loc
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config %s=%q is not a duration, using %s", key, v, fallback)
		return fallback
	}
	return d
}
