package config

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLoadConfigRestMode(t *testing.T) {
	t.Setenv("IDP_MODE", "rest")
	t.Setenv("IDP_BASE_URL", "https://idp.internal")
	t.Setenv("IDP_API_KEY", "svc-key")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("IDP_CALL_TIMEOUT", "2s")

	cfg, err := LoadConfig(zap.NewNop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AppConfig.Port != "8080" {
		t.Errorf("port = %q", cfg.AppConfig.Port)
	}
	if cfg.ProviderConfig.Mode != ModeRest {
		t.Errorf("mode = %q", cfg.ProviderConfig.Mode)
	}
	if cfg.ProviderConfig.CallTimeout != 2*time.Second {
		t.Errorf("call timeout = %v", cfg.ProviderConfig.CallTimeout)
	}
	if cfg.DbConfig != nil {
		t.Error("db config populated in rest mode")
	}
}

func TestLoadConfigRestModeRequiresBaseURL(t *testing.T) {
	t.Setenv("IDP_MODE", "rest")
	t.Setenv("IDP_BASE_URL", "")
	t.Setenv("IDP_API_KEY", "svc-key")

	if _, err := LoadConfig(zap.NewNop()); err == nil {
		t.Error("LoadConfig succeeded without IDP_BASE_URL")
	}
}

func TestLoadConfigEmbeddedMode(t *testing.T) {
	t.Setenv("IDP_MODE", "embedded")
	t.Setenv("IDP_TOKEN_SECRET", "test-secret")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/users")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")

	cfg, err := LoadConfig(zap.NewNop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ProviderConfig.Mode != ModeEmbedded {
		t.Errorf("mode = %q", cfg.ProviderConfig.Mode)
	}
	if cfg.ProviderConfig.TokenIssuer != "opuscm-users" {
		t.Errorf("issuer = %q, want default", cfg.ProviderConfig.TokenIssuer)
	}
	if cfg.DbConfig == nil || cfg.DbConfig.MaxOpenConns != 20 {
		t.Errorf("db config = %+v", cfg.DbConfig)
	}
}

func TestLoadConfigRejectsUnknownMode(t *testing.T) {
	t.Setenv("IDP_MODE", "mock")

	if _, err := LoadConfig(zap.NewNop()); err == nil {
		t.Error("LoadConfig accepted unknown IDP_MODE")
	}
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("IDP_MODE", "rest")
	t.Setenv("IDP_BASE_URL", "https://idp.internal")
	t.Setenv("IDP_API_KEY", "svc-key")
	t.Setenv("APP_READ_TIMEOUT", "banana")

	if _, err := LoadConfig(zap.NewNop()); err == nil {
		t.Error("LoadConfig accepted unparseable duration")
	}
}
