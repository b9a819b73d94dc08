package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration with precedence: defaults < config file < env.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		// Config file is optional unless explicitly specified.
		if l.configFile != "" {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// ConfigFileUsed returns the config file that was loaded.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "gatepass"))
	}
	if homeDir, _ := os.UserHomeDir(); homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "gatepass"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("GATEPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.setDefaults(cfg)
	bindEnvVars(v)
	v.AutomaticEnv()
}

// setDefaults sets all default values in Viper so Unmarshal sees the full
// key space even when the config file is sparse.
func (l *Loader) setDefaults(cfg *Config) {
	v := l.v

	v.SetDefault("site.name", cfg.Site.Name)
	v.SetDefault("site.training_url", cfg.Site.TrainingURL)
	v.SetDefault("site.base_url", cfg.Site.BaseURL)

	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.busy_timeout_ms", cfg.Database.BusyTimeoutMs)

	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("auth.site_passphrase_hash", cfg.Auth.SitePassphraseHash)
	v.SetDefault("auth.elevated_passphrase_hash", cfg.Auth.ElevatedPassphraseHash)
	v.SetDefault("auth.jwt_secret", cfg.Auth.JWTSecret)
	v.SetDefault("auth.session_ttl", cfg.Auth.SessionTTL)

	v.SetDefault("workflow.in_chain", cfg.Workflow.InChain)
	v.SetDefault("workflow.out_chain", cfg.Workflow.OutChain)
	v.SetDefault("workflow.execute_roles", cfg.Workflow.ExecuteRoles)
}

// bindEnvVars binds environment variables explicitly; Viper's Unmarshal
// does not pick up env overrides for nested keys otherwise.
func bindEnvVars(v *viper.Viper) {
	keys := []string{
		"site.name",
		"site.training_url",
		"site.base_url",
		"server.host",
		"server.port",
		"server.shutdown_timeout",
		"database.path",
		"database.busy_timeout_ms",
		"storage.data_dir",
		"logging.level",
		"logging.format",
		"auth.site_passphrase_hash",
		"auth.elevated_passphrase_hash",
		"auth.jwt_secret",
		"auth.session_ttl",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func expandPaths(cfg *Config) {
	cfg.Storage.DataDir = expandTilde(cfg.Storage.DataDir)
	cfg.Database.Path = expandTilde(cfg.Database.Path)
}
