package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func setRequiredDBEnv(t *testing.T) {
    t.Helper()
    t.Setenv("DB_USER", "app")
    t.Setenv("DB_PASSWORD", "secret")
    t.Setenv("DB_NAME", "ticketing")
}

func TestLoadAMQPURL(t *testing.T) {
    setRequiredDBEnv(t)

    // Neither variable set: publishing is disabled, no fallback broker.
    t.Setenv("RABBITMQ_URL", "")
    t.Setenv("AMQP_URL", "")
    cfg := Load()
    assert.Empty(t, cfg.AMQPURL)

    // AMQP_URL alone is honored.
    t.Setenv("AMQP_URL", "amqp://broker-a:5672/")
    cfg = Load()
    assert.Equal(t, "amqp://broker-a:5672/", cfg.AMQPURL)

    // RABBITMQ_URL wins when both are set.
    t.Setenv("RABBITMQ_URL", "amqp://broker-b:5672/")
    cfg = Load()
    assert.Equal(t, "amqp://broker-b:5672/", cfg.AMQPURL)
}

func TestLoadDefaults(t *testing.T) {
    setRequiredDBEnv(t)
    t.Setenv("HOLD_DURATION", "")
    t.Setenv("WAITLIST_FANOUT", "")

    cfg := Load()
    assert.Equal(t, "development", cfg.Env)
    assert.Equal(t, "8080", cfg.Port)
    assert.Equal(t, 5*time.Minute, cfg.HoldDuration)
    assert.Equal(t, "released", cfg.WaitlistFanout)
    assert.False(t, cfg.AsynqEnabled)
}

func TestLoadWaitlistFanout(t *testing.T) {
    setRequiredDBEnv(t)

    t.Setenv("WAITLIST_FANOUT", "all")
    cfg := Load()
    assert.Equal(t, "all", cfg.WaitlistFanout)

    // Unknown values fall back to the released cap.
    t.Setenv("WAITLIST_FANOUT", "everyone")
    cfg = Load()
    assert.Equal(t, "released", cfg.WaitlistFanout)
}
