package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/materialgate/gatepass/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	loader := NewLoader()
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, 8780, cfg.Server.Port)
	assert.Equal(t, 5000, cfg.Database.BusyTimeoutMs)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, []string{"supervisor", "safety"}, cfg.Workflow.InChain)

	// Database path defaults to the data dir.
	assert.Equal(t, filepath.Join(cfg.Storage.DataDir, "gatepass.db"), cfg.DatabasePath())
	assert.NotContains(t, cfg.Storage.DataDir, "~")
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
site:
  name: Riverside Tower Site
  training_url: training.example.com/induction
server:
  port: 9000
workflow:
  out_chain: [supervisor, safety]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loader := NewLoader()
	loader.SetConfigFile(path)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "Riverside Tower Site", cfg.Site.Name)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"supervisor", "safety"}, cfg.Workflow.OutChain)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 5000, cfg.Database.BusyTimeoutMs)

	chains := cfg.ApprovalChains()
	assert.Equal(t, []models.Role{models.RoleSupervisor, models.RoleSafety}, chains[models.DirectionOut])
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	loader := NewLoader()
	loader.SetConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := loader.Load()
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o644))

	t.Setenv("GATEPASS_SERVER_PORT", "9100")
	t.Setenv("GATEPASS_AUTH_JWT_SECRET", "env-secret")

	loader := NewLoader()
	loader.SetConfigFile(path)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"negative busy timeout", func(c *Config) { c.Database.BusyTimeoutMs = -1 }},
		{"empty data dir", func(c *Config) { c.Storage.DataDir = "" }},
		{"empty in chain", func(c *Config) { c.Workflow.InChain = nil }},
		{"unknown role", func(c *Config) { c.Workflow.ExecuteRoles = []string{"astronaut"} }},
		{"tiny session ttl", func(c *Config) { c.Auth.SessionTTL = time.Second }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
