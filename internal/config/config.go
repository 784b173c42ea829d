package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	LogLevel string   `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Database Database `envPrefix:"DATABASE_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	JWT      JWT      `envPrefix:"JWT_"`
	ResetDB  bool     `env:"RESET_DB" envDefault:"false"`
}

// Database contains relational storage parameters.
type Database struct {
	URL          string `env:"URL" envDefault:"postgresql:///warbler" validate:"required"`
	Driver       string `env:"DRIVER" validate:"omitempty,oneof=postgres mysql sqlite"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"10" validate:"gte=0"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"warn" validate:"oneof=silent error warn info"`
}

// Redis contains cache and token store parameters. Redis is disabled unless Addr is set.
type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0" validate:"gte=0"`
}

// JWT contains token signing parameters.
type JWT struct {
	Secret string `env:"SECRET" envDefault:"change-me" validate:"required"`
}

// Load builds Config from the environment, reading an optional .env file first.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
