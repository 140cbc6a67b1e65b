package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth      AuthConfig
	Allowlist AllowlistConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Users     UserServiceConfig
	Mail      MailConfig
}

type AuthConfig struct {
	JWTSecret            string        `env:"JWT_SECRET, required"`
	TokenTTL             time.Duration `env:"TOKEN_TTL,              default=24h"`
	ResetTokenTTL        time.Duration `env:"RESET_TOKEN_TTL,        default=24h"`
	VerificationTokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL, default=24h"`
	BcryptCost           int           `env:"BCRYPT_COST,            default=10"`
	DefaultPhoneRegion   string        `env:"DEFAULT_PHONE_REGION,   default=US"`
}

// AllowlistConfig holds the raw comma-separated email lists. Use
// Config.BuildAllowlist to get the normalised lookup value.
type AllowlistConfig struct {
	AdminEmails []string `env:"AUTHORIZED_ADMIN_EMAILS"`
	GodEmails   []string `env:"AUTHORIZED_GOD_EMAILS"`
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=authentication"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr      string        `env:"REDIS_ADDR,       default=localhost:6379"`
	Password  string        `env:"REDIS_PASSWORD"`
	DB        int           `env:"REDIS_DB,         default=0"`
	KeyPrefix string        `env:"REDIS_KEY_PREFIX, default=auth"`
	Timeout   time.Duration `env:"REDIS_TIMEOUT,    default=5s"`
}

type UserServiceConfig struct {
	BaseURL string        `env:"USER_SERVICE_URL,     default=http://localhost:8081"`
	Timeout time.Duration `env:"USER_SERVICE_TIMEOUT, default=5s"`
}

type MailConfig struct {
	// Provider is one of "log", "sendgrid" or "mailgun".
	Provider       string `env:"MAIL_PROVIDER, default=log"`
	From           string `env:"MAIL_FROM,     default=no-reply@kalado.local"`
	Workers        int    `env:"MAIL_WORKERS,  default=4"`
	SendgridAPIKey string `env:"SENDGRID_API_KEY"`
	MailgunDomain  string `env:"MAILGUN_DOMAIN"`
	MailgunAPIKey  string `env:"MAILGUN_API_KEY"`
	ResetURL       string `env:"MAIL_RESET_URL,  default=http://localhost:3000/reset-password?token=%s"`
	VerifyURL      string `env:"MAIL_VERIFY_URL, default=http://localhost:8080/auth/verify?token=%s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom resolves the configuration against an arbitrary lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Mail.Provider {
	case "log":
	case "sendgrid":
		if c.Mail.SendgridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required for the sendgrid provider")
		}
	case "mailgun":
		if c.Mail.MailgunDomain == "" || c.Mail.MailgunAPIKey == "" {
			return fmt.Errorf("MAILGUN_DOMAIN and MAILGUN_API_KEY are required for the mailgun provider")
		}
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q", c.Mail.Provider)
	}
	return nil
}

// BuildAllowlist returns the immutable allowlist for the configured emails.
func (c *Config) BuildAllowlist() Allowlist {
	return NewAllowlist(c.Allowlist.AdminEmails, c.Allowlist.GodEmails)
}
