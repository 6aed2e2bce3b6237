// Package config loads application settings from environment
// variables, typically populated from a .env file in development.
package config

import (
    "log"
    "os"
    "strconv"
    "time"
)

// Config carries everything the server needs to start.  Values come
// from the environment; sensible defaults cover local development and
// only the database settings are required.
type Config struct {
    Env  string // "development" or "production"
    Port string

    DBUser string
    DBPass string
    DBHost string
    DBPort string
    DBName string

    // HoldDuration is how long a seat hold stays active before it
    // lapses and the seats return to the pool.
    HoldDuration time.Duration

    // WaitlistFanout selects how many waitlisted users get notified
    // when seats come back: "released" caps the batch at the number
    // of released seats, "all" notifies every unnotified entry.
    WaitlistFanout string

    // AMQPURL is the RabbitMQ connection string for availability
    // events, read from RABBITMQ_URL or AMQP_URL.  Empty disables
    // publishing and the consumer entirely.
    AMQPURL string

    // AsynqEnabled turns on the background worker and the minutely
    // expired-hold sweep.  Requires Redis.
    AsynqEnabled bool
}

// Load reads the configuration from the environment.  Missing
// database settings are fatal; everything else falls back to a
// default.
func Load() *Config {
    cfg := &Config{
        Env:            envStr("APP_ENV", "development"),
        Port:           envStr("PORT", "8080"),
        DBUser:         must("DB_USER"),
        DBPass:         must("DB_PASSWORD"),
        DBHost:         envStr("DB_HOST", "localhost"),
        DBPort:         envStr("DB_PORT", "3306"),
        DBName:         must("DB_NAME"),
        HoldDuration:   envDur("HOLD_DURATION", 5*time.Minute),
        WaitlistFanout: envStr("WAITLIST_FANOUT", "released"),
        AMQPURL:        envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
        AsynqEnabled:   envBool("ASYNQ_ENABLED", false),
    }
    if cfg.WaitlistFanout != "released" && cfg.WaitlistFanout != "all" {
        log.Printf("config: unknown WAITLIST_FANOUT %q, using released", cfg.WaitlistFanout)
        cfg.WaitlistFanout = "released"
    }
    return cfg
}

// must returns the environment variable or exits; used for settings
// with no usable default.
func must(key string) string {
    v := os.Getenv(key)
    if v == "" {
        log.Fatalf("config: required environment variable %s is not set", key)
    }
    return v
}

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    switch v {
    case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
        return true
    case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if dur, err := time.ParseDuration(v); err == nil {
        return dur
    }
    return d
}
