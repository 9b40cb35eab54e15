package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddr)
	assert.Equal(t, 5*time.Minute, cfg.TokenTTL)
	assert.Equal(t, time.Minute, cfg.TokenSweepInterval)
	assert.Contains(t, cfg.DatabaseURL, "postgres://")
	assert.Empty(t, cfg.NATSURL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/mdm?sslmode=disable")
	t.Setenv("SERVER_ADDR", "127.0.0.1:9090")
	t.Setenv("SERVER_URI", "https://mdm.example.com/devicemgt/syncml")
	t.Setenv("TOKEN_TTL", "90s")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/mdm?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, "127.0.0.1:9090", cfg.ServerAddr)
	assert.Equal(t, "https://mdm.example.com/devicemgt/syncml", cfg.ServerURI)
	assert.Equal(t, 90*time.Second, cfg.TokenTTL)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
}

func TestLoadFromTOMLFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.toml")
	content := `
server_addr = "10.0.0.1:8443"
server_uri = "https://file.example.com/devicemgt/syncml"
token_ttl = "10m"
nats_url = "nats://file:4222"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("MDM_CONFIG", path)
	t.Setenv("SERVER_ADDR", "0.0.0.0:8444")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8444", cfg.ServerAddr, "environment wins over the file")
	assert.Equal(t, "https://file.example.com/devicemgt/syncml", cfg.ServerURI)
	assert.Equal(t, 10*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "nats://file:4222", cfg.NATSURL)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0o600))
	t.Setenv("MDM_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
}

func TestBadDurationFallsBack(t *testing.T) {
	t.Setenv("TOKEN_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.TokenTTL)
}
