package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the API process.
// All values come from env; a local .env file is loaded first when present.
// No business logic should depend on raw environment variables.
type Config struct {
	App    AppConfig
	Auth   AuthConfig
	Vapi   VapiConfig
	Notify NotifyConfig
	Poll   PollConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// VapiConfig identifies the external call engine and record API.
// PublicKey starts web calls; PrivateKey reads finished call records.
type VapiConfig struct {
	BaseURL    string
	PublicKey  string
	PrivateKey string
}

type NotifyConfig struct {
	// WebhookURL is the email-relay endpoint. Empty disables notification.
	WebhookURL string
}

// PollConfig controls the post-call record poll loop.
// MaxAttempts == 0 means retry until a finished record appears.
type PollConfig struct {
	InitialDelay time.Duration
	RetryDelay   time.Duration
	MaxAttempts  int
}

func Load() (Config, error) {
	// Local convenience only; deployed environments set real env vars.
	_ = godotenv.Load()

	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = mustDuration("JWT_REFRESH_TTL")

	c.Vapi.BaseURL = strings.TrimSpace(os.Getenv("VAPI_BASE_URL"))
	c.Vapi.PublicKey = os.Getenv("VAPI_PUBLIC_KEY")
	c.Vapi.PrivateKey = os.Getenv("VAPI_PRIVATE_KEY")

	c.Notify.WebhookURL = strings.TrimSpace(os.Getenv("NOTIFY_WEBHOOK_URL"))

	c.Poll.InitialDelay = mustDuration("POLL_INITIAL_DELAY")
	c.Poll.RetryDelay = mustDuration("POLL_RETRY_DELAY")
	{
		v := strings.TrimSpace(os.Getenv("POLL_MAX_ATTEMPTS"))
		if v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				parseErrs = append(parseErrs, fmt.Errorf("POLL_MAX_ATTEMPTS must be an integer, got %q", v))
			} else {
				c.Poll.MaxAttempts = n
			}
		}
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.Vapi.BaseURL == "" {
		// Default upstream; override for staging sandboxes and tests.
		c.Vapi.BaseURL = "https://api.vapi.ai"
	}
	if u, err := url.Parse(c.Vapi.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("VAPI_BASE_URL must be an absolute URL, got %q", c.Vapi.BaseURL))
	}
	if c.Vapi.PublicKey == "" {
		errs = append(errs, errors.New("VAPI_PUBLIC_KEY is required"))
	}
	if c.Vapi.PrivateKey == "" {
		errs = append(errs, errors.New("VAPI_PRIVATE_KEY is required"))
	}

	if c.Notify.WebhookURL != "" {
		if u, err := url.Parse(c.Notify.WebhookURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("NOTIFY_WEBHOOK_URL must be an absolute URL, got %q", c.Notify.WebhookURL))
		}
	}

	// Poll defaults mirror the upstream pipeline's observed latency:
	// ~2s before the record exists at all, ~1s between re-checks.
	if c.Poll.InitialDelay <= 0 {
		c.Poll.InitialDelay = 2 * time.Second
	}
	if c.Poll.RetryDelay <= 0 {
		c.Poll.RetryDelay = 1 * time.Second
	}
	if c.Poll.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("POLL_MAX_ATTEMPTS must be >= 0, got %d", c.Poll.MaxAttempts))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
