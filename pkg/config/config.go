package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-training/social-relay/pkg/store"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// defaultSessionSecret matches the development fallback and is refused in production.
const defaultSessionSecret = "dev-secret"

// Config is the full process configuration, read once at startup.
type Config struct {
	Addr            string        `env:"ADDR"             envDefault:":3000"`
	Env             string        `env:"ENV"              envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL"`
	Origins         []string      `env:"ORIGIN"           envSeparator:","`
	TrustedProxies  []string      `env:"TRUSTED_PROXIES"  envSeparator:","`
	StaticDir       string        `env:"STATIC_DIR"       envDefault:"public"`
	FailureRedirect string        `env:"FAILURE_REDIRECT" envDefault:"/callback.html"`
	SuccessRedirect string        `env:"SUCCESS_REDIRECT" envDefault:"/callback.html"`
	OutboundTimeout time.Duration `env:"OUTBOUND_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Session  SessionConfig
	Store    StoreConfig
	Twitter  TwitterConfig
	LinkedIn LinkedInConfig
}

// SessionConfig controls the session cookie and its lifetime.
type SessionConfig struct {
	Secret     string        `env:"SESSION_SECRET" envDefault:"dev-secret"`
	TTL        time.Duration `env:"SESSION_TTL"    envDefault:"24h"`
	CookieName string        `env:"SESSION_COOKIE" envDefault:"relay_session"`
	SameSite   string        `env:"SESSION_SAMESITE" envDefault:"lax"`

	// Secure defaults to true in production when unset.
	Secure *bool `env:"SESSION_SECURE"`
}

// SameSiteMode maps SESSION_SAMESITE onto http.SameSite.
func (c SessionConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// StoreConfig selects the session backend.
type StoreConfig struct {
	Type          string `env:"STORE_TYPE"     envDefault:"memory"`
	RedisAddr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"       envDefault:"0"`
}

// Options converts the settings into a store.Config.
func (c StoreConfig) Options() store.Config {
	return store.Config{
		Type: store.ParseStoreType(c.Type),
		Redis: store.RedisOptions{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		},
	}
}

// TwitterConfig holds the PKCE client for Twitter/X.
type TwitterConfig struct {
	ClientID     string `env:"TWITTER_CLIENT_ID"`
	ClientSecret string `env:"TWITTER_CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL"`
	AuthURL      string `env:"TWITTER_AUTH_URL"  envDefault:"https://twitter.com/i/oauth2/authorize"`
	TokenURL     string `env:"TWITTER_TOKEN_URL" envDefault:"https://api.twitter.com/2/oauth2/token"`
	APIURL       string `env:"TWITTER_API_URL"   envDefault:"https://api.twitter.com"`
}

// Enabled reports whether the Twitter flow has enough configuration to run.
func (c TwitterConfig) Enabled() bool {
	return c.ClientID != "" && c.CallbackURL != ""
}

// LinkedInConfig holds the confidential client for LinkedIn.
type LinkedInConfig struct {
	ClientID     string `env:"LINKEDIN_CLIENT_ID"`
	ClientSecret string `env:"LINKEDIN_CLIENT_SECRET"`
	CallbackURL  string `env:"LINKEDIN_CALLBACK_URL"`
	AuthURL      string `env:"LINKEDIN_AUTH_URL"  envDefault:"https://www.linkedin.com/oauth/v2/authorization"`
	TokenURL     string `env:"LINKEDIN_TOKEN_URL" envDefault:"https://www.linkedin.com/oauth/v2/accessToken"`
	APIURL       string `env:"LINKEDIN_API_URL"   envDefault:"https://api.linkedin.com"`
}

// Enabled reports whether the LinkedIn flow has enough configuration to run.
func (c LinkedInConfig) Enabled() bool {
	return c.ClientID != "" && c.CallbackURL != ""
}

// IsProduction reports whether ENV is "production".
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// SecureCookie resolves the session cookie Secure flag.
func (c Config) SecureCookie() bool {
	if c.Session.Secure != nil {
		return *c.Session.Secure
	}
	return c.IsProduction()
}

// Validate checks settings that cannot be defaulted.
func (c Config) Validate() error {
	var errs []error
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRET must not be empty"))
	}
	if c.IsProduction() && c.Session.Secret == defaultSessionSecret {
		errs = append(errs, errors.New("SESSION_SECRET must be set in production"))
	}
	if strings.EqualFold(c.Session.SameSite, "none") && !c.SecureCookie() {
		errs = append(errs, errors.New("SESSION_SAMESITE=none requires a secure cookie"))
	}
	if c.OutboundTimeout <= 0 {
		errs = append(errs, errors.New("OUTBOUND_TIMEOUT must be positive"))
	}
	if err := c.Store.Options().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("STORE_TYPE: %w", err))
	}
	if c.Twitter.ClientID != "" && c.Twitter.CallbackURL == "" {
		errs = append(errs, errors.New("CALLBACK_URL is required when TWITTER_CLIENT_ID is set"))
	}
	if c.LinkedIn.ClientID != "" {
		if c.LinkedIn.CallbackURL == "" {
			errs = append(errs, errors.New("LINKEDIN_CALLBACK_URL is required when LINKEDIN_CLIENT_ID is set"))
		}
		if c.LinkedIn.ClientSecret == "" {
			errs = append(errs, errors.New("LINKEDIN_CLIENT_SECRET is required when LINKEDIN_CLIENT_ID is set"))
		}
	}
	return errors.Join(errs...)
}

// LoadDotEnv loads variables from the given files (".env" when none given)
// without overriding the ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Parse reads Config from the environment and validates it.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load is LoadDotEnv(files...) followed by Parse.
func Load(files ...string) (Config, error) {
	if err := LoadDotEnv(files...); err != nil {
		return Config{}, err
	}
	return Parse()
}
