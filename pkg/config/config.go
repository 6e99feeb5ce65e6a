package config

import (
	"github.com/caarlos0/env/v11"
)

// Config is read from the environment by Load.
type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RunMigrations  bool     `env:"RUN_MIGRATIONS" envDefault:"false"`
	MigrationsDir  string   `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	KeystoreDir    string   `env:"KEYSTORE_DIR" envDefault:"keystore"`

	Fundraiser FundraiserConfig
	RateLimit  RateLimitConfig
	Faucet     FaucetConfig
	Database   DatabaseConfig
	Broker     BrokerConfig
}

// FundraiserConfig identifies the program and its contribution policy.
type FundraiserConfig struct {
	ProgramID          string `env:"FUNDRAISER_PROGRAM_ID" envDefault:"9iZCMukrWKS2Tfp3o84JdckVjGqjGtyasF8fiGo5UJk1"`
	MinContributionBps uint64 `env:"MIN_CONTRIBUTION_BPS" envDefault:"10"`
	MaxContributionBps uint64 `env:"MAX_CONTRIBUTION_BPS" envDefault:"1000"`
}

// RateLimitConfig is the per-client token bucket for write endpoints.
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

type FaucetConfig struct {
	Enabled bool `env:"FAUCET_ENABLED" envDefault:"true"`
}

// DatabaseConfig is optional; without DB_HOST the ledger stays in memory.
type DatabaseConfig struct {
	Host     string `env:"DB_HOST"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
}

func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// BrokerConfig is optional; without RABBITMQ_HOST events are not published.
type BrokerConfig struct {
	Host     string `env:"RABBITMQ_HOST"`
	Port     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	User     string `env:"RABBITMQ_USER" envDefault:"guest"`
	Password string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
}

func (b BrokerConfig) Enabled() bool {
	return b.Host != ""
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
