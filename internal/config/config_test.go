package config

import (
	"strings"
	"testing"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	c, err := FromEnv(envOf(map[string]string{"JWT_SECRET": "s"}))
	if err != nil {
		t.Fatal(err)
	}
	if c.Port != "8080" || c.StoreDriver != DriverMemory || c.MongoDatabase != "goals" || c.GenerateRateLimit != 10 {
		t.Fatalf("defaults = %+v", c)
	}
	if c.Development() {
		t.Fatal("default env is development")
	}
	if c.TrustProxy {
		t.Fatal("proxy headers trusted by default")
	}
}

func TestDriverFollowsDatabaseURL(t *testing.T) {
	c, err := FromEnv(envOf(map[string]string{"JWT_SECRET": "s", "DATABASE_URL": "postgres://x"}))
	if err != nil {
		t.Fatal(err)
	}
	if c.StoreDriver != DriverPostgres {
		t.Fatalf("driver = %q", c.StoreDriver)
	}
}

func TestCORSOrigins(t *testing.T) {
	c, err := FromEnv(envOf(map[string]string{"JWT_SECRET": "s", "CORS_ORIGINS": " https://a.dev, ,https://b.dev"}))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(c.CORSOrigins, "|") != "https://a.dev|https://b.dev" {
		t.Fatalf("origins = %q", c.CORSOrigins)
	}
}

func TestValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"no verifier":          {},
		"unknown driver":       {"JWT_SECRET": "s", "STORE_DRIVER": "sqlite"},
		"mongo without uri":    {"JWT_SECRET": "s", "STORE_DRIVER": "mongo"},
		"postgres without url": {"JWT_SECRET": "s", "STORE_DRIVER": "postgres"},
		"half the keys":        {"JWT_SECRET": "s", "ENCRYPTION_KEY": "abc"},
		"bad rate limit":       {"JWT_SECRET": "s", "GENERATE_RATE_LIMIT": "lots"},
		"bad trust proxy":      {"JWT_SECRET": "s", "TRUST_PROXY": "maybe"},
	}
	for name, env := range cases {
		if _, err := FromEnv(envOf(env)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestFirebaseAloneIsEnough(t *testing.T) {
	if _, err := FromEnv(envOf(map[string]string{"FIREBASE_CREDENTIALS_FILE": "/etc/sa.json"})); err != nil {
		t.Fatal(err)
	}
}
