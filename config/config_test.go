package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s failed: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		}
	})
}

func TestLoadRequiresMySQLDSN(t *testing.T) {
	unsetEnv(t, "MYSQL_DSN")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing MYSQL_DSN")
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/webhooks?parseTime=true")
	setEnv(t, "APP_SERVICE_NAME", "webhooks-test")
	setEnv(t, "HTTP_PORT", "8181")
	setEnv(t, "MYSQL_MAX_OPEN_CONNS", "20")
	setEnv(t, "MYSQL_MAX_IDLE_CONNS", "8")
	setEnv(t, "MYSQL_CONN_MAX_LIFETIME_MINUTES", "40")
	setEnv(t, "PAYU_MERCHANT_KEY", "key-1")
	setEnv(t, "PAYU_MERCHANT_SALT", "salt-1")
	setEnv(t, "WEBHOOKS_REPLAY_WINDOW_MINUTES", "7")
	setEnv(t, "WEBHOOKS_PROCESSING_TIMEOUT_SECONDS", "15")
	setEnv(t, "WEBHOOKS_JOB_BATCH_SIZE", "99")
	setEnv(t, "NOTIFY_MAX_ATTEMPTS", "5")
	setEnv(t, "NOTIFY_RETRY_INTERVAL_MINUTES", "7")
	setEnv(t, "SESSIONS_TTL_MINUTES", "11")
	unsetEnv(t, "HTTP_HOST")
	unsetEnv(t, "REDIS_ADDR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.App.ServiceName != "webhooks-test" {
		t.Errorf("ServiceName = %q", cfg.App.ServiceName)
	}
	if cfg.HTTP.Host != "0.0.0.0" || cfg.HTTP.Port != "8181" {
		t.Errorf("HTTP = %+v", cfg.HTTP)
	}
	if cfg.MySQL.MaxOpenConns != 20 || cfg.MySQL.MaxIdleConns != 8 {
		t.Errorf("MySQL conns = %+v", cfg.MySQL)
	}
	if cfg.MySQL.ConnMaxLifetime != 40*time.Minute {
		t.Errorf("ConnMaxLifetime = %v", cfg.MySQL.ConnMaxLifetime)
	}
	if cfg.PayU.MerchantKey != "key-1" || cfg.PayU.MerchantSalt != "salt-1" {
		t.Error("payu credentials not loaded")
	}
	if cfg.Webhooks.ReplayWindow != 7*time.Minute {
		t.Errorf("ReplayWindow = %v", cfg.Webhooks.ReplayWindow)
	}
	if cfg.Webhooks.ProcessingTimeout != 15*time.Second {
		t.Errorf("ProcessingTimeout = %v", cfg.Webhooks.ProcessingTimeout)
	}
	if cfg.Webhooks.JobBatchSize != 99 {
		t.Errorf("JobBatchSize = %d", cfg.Webhooks.JobBatchSize)
	}
	if cfg.Notify.MaxAttempts != 5 || cfg.Notify.RetryInterval != 7*time.Minute {
		t.Errorf("Notify = %+v", cfg.Notify)
	}
	if cfg.Sessions.TTL != 11*time.Minute {
		t.Errorf("Sessions.TTL = %v", cfg.Sessions.TTL)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/webhooks")
	setEnv(t, "MYSQL_MAX_OPEN_CONNS", "not-a-number")
	setEnv(t, "WEBHOOKS_REPLAY_WINDOW_MINUTES", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.MySQL.MaxOpenConns != 10 {
		t.Errorf("MaxOpenConns = %d, want default 10", cfg.MySQL.MaxOpenConns)
	}
	if cfg.Webhooks.ReplayWindow != 5*time.Minute {
		t.Errorf("ReplayWindow = %v, want default 5m", cfg.Webhooks.ReplayWindow)
	}
}
