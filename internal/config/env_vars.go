package config

import "strings"

type EnvVars struct {
	Port     string `env:"PORT" envDefault:"5000"`
	AppName  string `env:"APP_NAME" envDefault:"PKCE Client"`
	Env      string `env:"ENV" envDefault:"DEV"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
}

var _ EnvConfig = EnvVars{}

// GetPort returns the listen address, e.g. ":5000".
func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "5000"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}
