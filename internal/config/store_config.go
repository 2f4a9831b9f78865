package config

import "time"

type StoreConfig interface {
	GetStoreDriver() string
	GetStoreDSN() string
	GetTokenStore() string
	GetPurgeInterval() time.Duration
}

type TelemetryConfig interface {
	GetOTLPEndpoint() string
}

const (
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"
	StoreDriverMySQL  = "mysql"

	TokenStoreMemory  = "memory"
	TokenStoreSQL     = "sql"
	TokenStoreKeyring = "keyring"
)

// Store selects where pending flows and tokens live.
type Store struct {
	Driver        string        `env:"STORE_DRIVER" envDefault:"memory" validate:"oneof=memory sqlite mysql"`
	DSN           string        `env:"STORE_DSN" validate:"required_unless=Driver memory"`
	TokenStore    string        `env:"TOKEN_STORE" envDefault:"memory" validate:"oneof=memory sql keyring"`
	PurgeInterval time.Duration `env:"PURGE_INTERVAL" envDefault:"1m" validate:"gt=0"`
}

var _ StoreConfig = Store{}

func (s Store) GetStoreDriver() string {
	return s.Driver
}

func (s Store) GetStoreDSN() string {
	return s.DSN
}

func (s Store) GetTokenStore() string {
	return s.TokenStore
}

func (s Store) GetPurgeInterval() time.Duration {
	if s.PurgeInterval <= 0 {
		return time.Minute
	}
	return s.PurgeInterval
}

type Telemetry struct {
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

var _ TelemetryConfig = Telemetry{}

func (t Telemetry) GetOTLPEndpoint() string {
	return t.OTLPEndpoint
}
