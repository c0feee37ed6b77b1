package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("AUTH_MODE", "")
	t.Setenv("OTP_TTL_MINUTES", "")
	t.Setenv("DEFAULT_GRANT_HOURS", "")
	t.Setenv("JWT_TTL", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.Addr)
	}
	if cfg.AuthMode != AuthModeDev {
		t.Fatalf("expected dev auth mode, got %s", cfg.AuthMode)
	}
	if cfg.OTPTTL != 10*time.Minute {
		t.Fatalf("expected 10m otp ttl, got %s", cfg.OTPTTL)
	}
	if cfg.DefaultGrantHours != 24 {
		t.Fatalf("expected 24 default grant hours, got %d", cfg.DefaultGrantHours)
	}
	if cfg.JWTTTL != 168*time.Hour {
		t.Fatalf("expected 168h jwt ttl, got %s", cfg.JWTTTL)
	}
}

func TestFromEnv_JWTModeRequiresSecret(t *testing.T) {
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("JWT_SECRET", "")

	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error for missing JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	if _, err := FromEnv(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFromEnv_RejectsUnknownAuthMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "magic")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error for unknown AUTH_MODE")
	}
}

func TestFromEnv_RejectsOutOfRangeGrantHours(t *testing.T) {
	t.Setenv("AUTH_MODE", "dev")
	t.Setenv("DEFAULT_GRANT_HOURS", "200")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error for DEFAULT_GRANT_HOURS=200")
	}
}
