package config

import (
	"testing"
	"time"
)

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_PollDefaults(t *testing.T) {
	c := Config{
		App:  AppConfig{Env: "local", Port: 8080},
		Auth: AuthConfig{JWTSecret: "secret"},
		Vapi: VapiConfig{PublicKey: "pub", PrivateKey: "priv"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Poll.InitialDelay != 2*time.Second {
		t.Fatalf("expected 2s initial delay default, got %v", c.Poll.InitialDelay)
	}
	if c.Poll.RetryDelay != 1*time.Second {
		t.Fatalf("expected 1s retry delay default, got %v", c.Poll.RetryDelay)
	}
	if c.Poll.MaxAttempts != 0 {
		t.Fatalf("expected unbounded attempts by default, got %d", c.Poll.MaxAttempts)
	}
	if c.Vapi.BaseURL != "https://api.vapi.ai" {
		t.Fatalf("expected default base URL, got %q", c.Vapi.BaseURL)
	}
}

func TestValidate_ProductionRequiresIssuerAudience(t *testing.T) {
	c := Config{
		App:  AppConfig{Env: "production", Port: 8080},
		Auth: AuthConfig{JWTSecret: "secret"},
		Vapi: VapiConfig{PublicKey: "pub", PrivateKey: "priv"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without issuer/audience")
	}
}

func TestValidate_RejectsBadWebhookURL(t *testing.T) {
	c := Config{
		App:    AppConfig{Env: "local", Port: 8080},
		Auth:   AuthConfig{JWTSecret: "secret"},
		Vapi:   VapiConfig{PublicKey: "pub", PrivateKey: "priv"},
		Notify: NotifyConfig{WebhookURL: "not-a-url"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for relative webhook URL")
	}
}
