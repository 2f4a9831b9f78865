package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded when present; variables already set in the environment win.
const DefaultEnvFile = ".env.local"

type Config interface {
	EnvConfig
	OAuthConfig
	StoreConfig
	TelemetryConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	OAuth
	Store
	Telemetry
}

var _ Config = mainConfig{}

// Load reads the optional env files, parses the environment and validates the result.
// Missing client credentials are not an error here: the flow fails fast with
// oauthmodel.ErrConfiguration when it is used without them.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("[config.Load] loading %s: %w", f, err)
		}
	}

	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("[config.Load] parsing environment: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("[config.Load] %w", err)
	}
	return c, nil
}

func (c mainConfig) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if c.Store.TokenStore == TokenStoreSQL && c.Store.Driver == StoreDriverMemory {
		return fmt.Errorf("validation failed: TOKEN_STORE=%s requires STORE_DRIVER sqlite or mysql", TokenStoreSQL)
	}
	return nil
}

// New composes a Config from its parts without reading the environment.
func New(e EnvVars, o OAuth, s Store, t Telemetry) Config {
	return mainConfig{EnvVars: e, OAuth: o, Store: s, Telemetry: t}
}
