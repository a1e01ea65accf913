package config

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/oauthlink/pkg/auth"
	"github.com/dmitrymomot/oauthlink/pkg/environment"
	"github.com/dmitrymomot/oauthlink/pkg/identity"
	"github.com/dmitrymomot/oauthlink/pkg/ratelimiter"
)

// Vault backends.
const (
	VaultMemory   = "memory"
	VaultPostgres = "postgres"
	VaultMongo    = "mongo"
)

// State store backends.
const (
	StateMemory = "memory"
	StateRedis  = "redis"
)

// App is the top-level configuration of oauthlinkd. Backend-specific settings
// (pg.Config, mongo.Config, redis.Config) are loaded separately, only when the
// corresponding backend is selected.
type App struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"APP_NAME" envDefault:"oauthlinkd"`
	Version     string `env:"APP_VERSION" envDefault:"dev"`
	LogLevel    string `env:"LOG_LEVEL"`

	VaultBackend string `env:"VAULT_BACKEND" envDefault:"memory"`
	StateBackend string `env:"STATE_BACKEND" envDefault:"memory"`

	// TokenSealKey encrypts provider tokens at rest (32 bytes, base64 or hex). Empty disables sealing.
	TokenSealKey string `env:"TOKEN_SEAL_KEY"`

	JWTSecret  string        `env:"JWT_SECRET,required"`
	JWTIssuer  string        `env:"JWT_ISSUER" envDefault:"oauthlink"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	StateTTL   time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`

	// AdminKey guards the account listing endpoint. Empty disables it.
	AdminKey string `env:"ADMIN_API_KEY"`

	// TrustedProxyHeaders name the headers the fronting proxy sets with the
	// client address, highest priority first. Empty means RemoteAddr only.
	TrustedProxyHeaders []string `env:"TRUSTED_PROXY_HEADERS" envSeparator:","`

	RateLimitEnabled bool               `env:"AUTH_RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimit        ratelimiter.Config `envPrefix:"AUTH_RATE_LIMIT_"`

	Google    auth.ProviderConfig `envPrefix:"GOOGLE_OAUTH_"`
	Facebook  auth.ProviderConfig `envPrefix:"FACEBOOK_OAUTH_"`
	GitHub    auth.ProviderConfig `envPrefix:"GITHUB_OAUTH_"`
	LinkedIn  auth.ProviderConfig `envPrefix:"LINKEDIN_OAUTH_"`
	Twitter   auth.ProviderConfig `envPrefix:"TWITTER_OAUTH_"`
	Instagram auth.ProviderConfig `envPrefix:"INSTAGRAM_OAUTH_"`
	Reddit    auth.ProviderConfig `envPrefix:"REDDIT_OAUTH_"`
}

// Environment returns the parsed deployment environment.
func (a App) Environment() environment.Environment {
	return environment.Parse(a.Env)
}

// Providers maps each provider to its client registration.
func (a App) Providers() map[identity.Provider]auth.ProviderConfig {
	return map[identity.Provider]auth.ProviderConfig{
		identity.ProviderGoogle:    a.Google,
		identity.ProviderFacebook:  a.Facebook,
		identity.ProviderGitHub:    a.GitHub,
		identity.ProviderLinkedIn:  a.LinkedIn,
		identity.ProviderTwitter:   a.Twitter,
		identity.ProviderInstagram: a.Instagram,
		identity.ProviderReddit:    a.Reddit,
	}
}

// Validate checks cross-field constraints env tags cannot express.
func (a App) Validate() error {
	switch a.VaultBackend {
	case VaultMemory, VaultPostgres, VaultMongo:
	default:
		return fmt.Errorf("%w: unknown VAULT_BACKEND %q", ErrInvalidConfig, a.VaultBackend)
	}
	switch a.StateBackend {
	case StateMemory, StateRedis:
	default:
		return fmt.Errorf("%w: unknown STATE_BACKEND %q", ErrInvalidConfig, a.StateBackend)
	}
	if len(a.JWTSecret) < 32 {
		return fmt.Errorf("%w: JWT_SECRET must be at least 32 bytes", ErrInvalidConfig)
	}
	if a.Environment().IsProduction() && a.VaultBackend == VaultMemory {
		return fmt.Errorf("%w: the memory vault is not allowed in production", ErrInvalidConfig)
	}
	return nil
}
