package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"ad-reward-backend/internal/common/apperrors"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8081"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Telegram struct {
		BotToken   string `env:"BOT_TOKEN,required,notEmpty"`
		MiniAppURL string `env:"MINI_APP_URL,required,notEmpty"`
	}

	Postback struct {
		Secret string `env:"POSTBACK_SECRET,required,notEmpty"`

		// Namespace under which user documents are nested in the ledger.
		Namespace string `env:"LEDGER_NAMESPACE" envDefault:"adreward"`
	}
}

// Load reads the environment (with an optional .env preload) into an
// immutable Config. A missing required value is an error.
func Load() (*Config, error) {
	// The .env file is optional; in production the variables are set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}

// MustLoad is Load for the process entrypoint: the server must not start
// serving traffic with an incomplete configuration.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "incomplete configuration"))
	}
	return cfg
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
