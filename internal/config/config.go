package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds the service settings.
type Config struct {
	AppPort string

	StoreDriver  string
	StoreTimeout time.Duration

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	DatabaseDSN string
	SQLitePath  string

	LogLevel  string
	LogFormat string

	BcryptCost int
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper applies defaults to v and builds a validated Config from it.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("STORE_DRIVER", DriverMongo)
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "crud_users")
	v.SetDefault("MONGO_COLLECTION", "user")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=crud_users port=5432 sslmode=disable")
	v.SetDefault("SQLITE_PATH", "file::memory:?cache=shared")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)

	cfg := &Config{
		AppPort:         v.GetString("APP_PORT"),
		StoreDriver:     v.GetString("STORE_DRIVER"),
		StoreTimeout:    v.GetDuration("STORE_TIMEOUT"),
		MongoURI:        v.GetString("MONGO_URI"),
		MongoDatabase:   v.GetString("MONGO_DATABASE"),
		MongoCollection: v.GetString("MONGO_COLLECTION"),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		SQLitePath:      v.GetString("SQLITE_PATH"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		BcryptCost:      v.GetInt("BCRYPT_COST"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverMongo, DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive, got %s", c.StoreTimeout)
	}
	if c.AppPort == "" {
		return fmt.Errorf("APP_PORT must not be empty")
	}
	return nil
}
