package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/quire/internal/kv"
	"github.com/starford/quire/internal/remote"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// DefaultRetention is how long trashed folders are kept before a purge
// removes them.
const DefaultRetention = 30 * 24 * time.Hour

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	Remote  RemoteConfig      `yaml:"remote"`
	Trash   TrashConfig       `yaml:"trash"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	if err := c.Trash.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the local key-value backend.
//
// Path is a directory for the "file" driver and a database file for
// "sqlite"; it is ignored by "memory" and "disabled".
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = kv.DriverFile
	}
	needsPath := c.Driver == kv.DriverFile || c.Driver == kv.DriverSQLite
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(kv.DriverMemory, kv.DriverFile, kv.DriverSQLite, kv.DriverDisabled)),
		validation.Field(&c.Path, validation.When(needsPath, validation.Required)),
	)
}

// RemoteConfig holds the optional remote backend settings.
type RemoteConfig struct {
	Mode    string        `yaml:"mode"`
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the remote configuration.
func (c *RemoteConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = remote.ModeDisabled
	}
	rest := c.Mode == remote.ModeREST
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(remote.ModeDisabled, remote.ModeREST)),
		validation.Field(&c.URL, validation.When(rest, validation.Required)),
		validation.Field(&c.APIKey, validation.When(rest, validation.Required)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// Enabled reports whether a remote backend should be built.
func (c *RemoteConfig) Enabled() bool {
	return c.Mode == remote.ModeREST
}

// TrashConfig controls trash retention.
//
// PurgeInterval of zero disables the background purge; purges then only
// happen through the CLI or the API.
type TrashConfig struct {
	Retention     time.Duration `yaml:"retention"`
	PurgeInterval time.Duration `yaml:"purge_interval"`
}

// Validate validates the trash configuration.
func (c *TrashConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Retention, validation.Min(time.Duration(0))),
		validation.Field(&c.PurgeInterval, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver: kv.DriverFile,
			Path:   "./data",
		},
		Remote: RemoteConfig{
			Mode:    remote.ModeDisabled,
			Timeout: 10 * time.Second,
		},
		Trash: TrashConfig{
			Retention: DefaultRetention,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
