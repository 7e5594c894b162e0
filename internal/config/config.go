// Package config reads server settings from the environment, after loading
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Port   string
	AppEnv string

	StoreDriver       string
	DatabaseURL       string
	MongoURI          string
	MongoDatabase     string
	FirebaseCredsFile string

	JWTSecret string

	CompletionAPIKey string
	CompletionURL    string
	CompletionModel  string

	EncryptionKey string
	BlindIndexKey string

	RedisAddr         string
	RedisPassword     string
	GenerateRateLimit int

	CORSOrigins []string
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only safe behind a proxy that overwrites those headers.
	TrustProxy bool
}

func (c Config) Development() bool { return c.AppEnv == "development" }

// Load reads .env if present and then the process environment. Values
// already in the environment win over .env.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can supply their
// own environment.
func FromEnv(lookup func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		v := strings.TrimSpace(lookup(key))
		if v == "" {
			return fallback
		}
		return v
	}

	c := Config{
		Port:              get("PORT", "8080"),
		AppEnv:            get("APP_ENV", "production"),
		DatabaseURL:       get("DATABASE_URL", ""),
		MongoURI:          get("MONGODB_URI", ""),
		MongoDatabase:     get("MONGODB_DATABASE", "goals"),
		FirebaseCredsFile: get("FIREBASE_CREDENTIALS_FILE", ""),
		JWTSecret:         get("JWT_SECRET", ""),
		CompletionAPIKey:  get("COMPLETION_API_KEY", ""),
		CompletionURL:     get("COMPLETION_API_URL", ""),
		CompletionModel:   get("COMPLETION_MODEL", ""),
		EncryptionKey:     get("ENCRYPTION_KEY", ""),
		BlindIndexKey:     get("BLIND_INDEX_KEY", ""),
		RedisAddr:         get("REDIS_ADDR", ""),
		RedisPassword:     get("REDIS_PASSWORD", ""),
	}

	c.StoreDriver = get("STORE_DRIVER", "")
	if c.StoreDriver == "" {
		c.StoreDriver = DriverMemory
		if c.DatabaseURL != "" {
			c.StoreDriver = DriverPostgres
		}
	}

	limit, err := strconv.Atoi(get("GENERATE_RATE_LIMIT", "10"))
	if err != nil || limit < 0 {
		return Config{}, errors.New("GENERATE_RATE_LIMIT must be a non-negative integer")
	}
	c.GenerateRateLimit = limit

	if c.TrustProxy, err = strconv.ParseBool(get("TRUST_PROXY", "false")); err != nil {
		return Config{}, errors.New("TRUST_PROXY must be a boolean")
	}

	for _, o := range strings.Split(get("CORS_ORIGINS", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.CORSOrigins = append(c.CORSOrigins, o)
		}
	}

	return c, c.validate()
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" && c.FirebaseCredsFile == "" {
		return errors.New("JWT_SECRET or FIREBASE_CREDENTIALS_FILE is required")
	}
	if (c.EncryptionKey == "") != (c.BlindIndexKey == "") {
		return errors.New("ENCRYPTION_KEY and BLIND_INDEX_KEY must be set together")
	}
	return nil
}
