package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: s3cret\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3000, cfg.Server.Port)
	require.Equal(t, []string{"http://localhost:3001"}, cfg.Server.CORSOrigins)
	require.Equal(t, time.Hour, cfg.JWT.TTL.Std())
	require.Equal(t, 3, cfg.Limits.OTPRequests)
	require.Equal(t, time.Minute, cfg.Limits.OTPWindow.Std())
	require.Equal(t, 10, cfg.Limits.BcryptCost)
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: s3cret
  ttl: 30m
limits:
  otp_window: 90s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, cfg.JWT.TTL.Std())
	require.Equal(t, 90*time.Second, cfg.Limits.OTPWindow.Std())
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 4000\n")

	_, err := Load(path)
	require.ErrorContains(t, err, "jwt.secret")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: s3cret\n  ttl: soon\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "goat", SSLMode: "disable"}
	require.Equal(t, "host=db port=5432 user=u password=p dbname=goat sslmode=disable", d.DSN())
}
