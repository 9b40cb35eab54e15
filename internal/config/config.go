package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds service configuration. Values come from an optional TOML file
// named by MDM_CONFIG, with environment variables taking precedence.
type Config struct {
	DatabaseURL        string        `toml:"database_url"`
	ServerAddr         string        `toml:"server_addr"`
	ServerURI          string        `toml:"server_uri"`
	TokenTTL           time.Duration `toml:"-"`
	TokenSweepInterval time.Duration `toml:"-"`
	NATSURL            string        `toml:"nats_url"`

	TokenTTLRaw   string `toml:"token_ttl"`
	TokenSweepRaw string `toml:"token_sweep_interval"`
}

// Load reads configuration from the optional TOML file and the environment.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddr:    "0.0.0.0:8080",
		ServerURI:     "https://localhost:8080/devicemgt/syncml",
		TokenTTLRaw:   "5m",
		TokenSweepRaw: "1m",
	}

	if path := os.Getenv("MDM_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.DatabaseURL = dsn
	}
	if cfg.DatabaseURL == "" {
		user := getenv("POSTGRES_USER", "mdm_gateway")
		pass := getenv("POSTGRES_PASSWORD", "mdm_gateway_pass")
		db := getenv("POSTGRES_DB", "mdm_gateway")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		cfg.ServerAddr = addr
	}
	if uri := os.Getenv("SERVER_URI"); uri != "" {
		cfg.ServerURI = uri
	}
	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		cfg.TokenTTLRaw = ttl
	}
	if sweep := os.Getenv("TOKEN_SWEEP_INTERVAL"); sweep != "" {
		cfg.TokenSweepRaw = sweep
	}
	if nats := os.Getenv("NATS_URL"); nats != "" {
		cfg.NATSURL = nats
	}

	cfg.TokenTTL = parseDuration(cfg.TokenTTLRaw, 5*time.Minute)
	cfg.TokenSweepInterval = parseDuration(cfg.TokenSweepRaw, time.Minute)
	return cfg, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}
