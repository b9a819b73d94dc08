// Package config defines Gatepass configuration and its loading rules.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/materialgate/gatepass/internal/models"
)

// Config is the root configuration.
type Config struct {
	// Site settings
	Site SiteConfig `yaml:"site" mapstructure:"site"`

	// HTTP server settings
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Database settings
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Storage settings
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Auth settings
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// Workflow policy
	Workflow WorkflowConfig `yaml:"workflow" mapstructure:"workflow"`
}

// SiteConfig identifies the construction site this instance serves.
type SiteConfig struct {
	// Name is printed on every generated document.
	Name string `yaml:"name" mapstructure:"name"`

	// TrainingURL is the visitor-training link encoded on entry permits.
	TrainingURL string `yaml:"training_url" mapstructure:"training_url"`

	// BaseURL is the externally reachable service URL, encoded as the
	// server-access QR posted at the gate.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeoutMs is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// StorageConfig contains artifact storage settings.
type StorageConfig struct {
	// DataDir is the base directory for generated artifacts and uploads.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`
}

// AuthConfig contains the shared-credential settings. The site crew shares
// one passphrase; supervisors additionally know the elevated passphrase.
type AuthConfig struct {
	// SitePassphraseHash is the bcrypt hash of the site passphrase. A
	// non-hash value is compared as plain text for dev setups.
	SitePassphraseHash string `yaml:"site_passphrase_hash" mapstructure:"site_passphrase_hash"`

	// ElevatedPassphraseHash unlocks elevated sessions. Optional.
	ElevatedPassphraseHash string `yaml:"elevated_passphrase_hash" mapstructure:"elevated_passphrase_hash"`

	// JWTSecret signs session tokens.
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`

	// SessionTTL is how long a login token stays valid.
	SessionTTL time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`
}

// WorkflowConfig contains the approval-chain policy. The chains are read
// only at submission; in-flight requests keep their snapshot.
type WorkflowConfig struct {
	// InChain is the ordered approver roles for inbound requests.
	InChain []string `yaml:"in_chain" mapstructure:"in_chain"`

	// OutChain is the ordered approver roles for outbound requests.
	OutChain []string `yaml:"out_chain" mapstructure:"out_chain"`

	// ExecuteRoles lists roles allowed to record execution.
	ExecuteRoles []string `yaml:"execute_roles" mapstructure:"execute_roles"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Name: "Gatepass Site",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8780,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:          "", // defaults to <data_dir>/gatepass.db
			BusyTimeoutMs: 5000,
		},
		Storage: StorageConfig{
			DataDir: "~/.local/share/gatepass",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Auth: AuthConfig{
			SessionTTL: 12 * time.Hour,
		},
		Workflow: WorkflowConfig{
			InChain:      []string{string(models.RoleSupervisor), string(models.RoleSafety)},
			OutChain:     []string{string(models.RoleSupervisor)},
			ExecuteRoles: []string{string(models.RoleExecutor), string(models.RoleSupervisor)},
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.BusyTimeoutMs < 0 {
		return fmt.Errorf("database.busy_timeout_ms must not be negative")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	if len(c.Workflow.InChain) == 0 || len(c.Workflow.OutChain) == 0 {
		return fmt.Errorf("workflow approval chains must not be empty")
	}
	for _, chain := range [][]string{c.Workflow.InChain, c.Workflow.OutChain, c.Workflow.ExecuteRoles} {
		for _, role := range chain {
			if !knownRole(role) {
				return fmt.Errorf("unknown role %q in workflow config", role)
			}
		}
	}
	if c.Auth.SessionTTL < time.Minute {
		return fmt.Errorf("auth.session_ttl must be at least 1m")
	}
	return nil
}

func knownRole(role string) bool {
	switch models.Role(role) {
	case models.RoleRequester, models.RoleSupervisor, models.RoleSafety,
		models.RoleExecutor, models.RoleGuard:
		return true
	}
	return false
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Storage.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.Storage.DataDir, err)
	}
	return nil
}

// DatabasePath returns the full database path.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.Storage.DataDir, "gatepass.db")
}

// ApprovalChains converts the configured chains into typed form.
func (c *Config) ApprovalChains() map[models.Direction][]models.Role {
	return map[models.Direction][]models.Role{
		models.DirectionIn:  toRoles(c.Workflow.InChain),
		models.DirectionOut: toRoles(c.Workflow.OutChain),
	}
}

// ExecuteRoles converts the configured execute roles into typed form.
func (c *Config) ExecuteRoles() []models.Role {
	return toRoles(c.Workflow.ExecuteRoles)
}

func toRoles(names []string) []models.Role {
	out := make([]models.Role, 0, len(names))
	for _, n := range names {
		out = append(out, models.Role(n))
	}
	return out
}
