package reader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// DefaultServerURL is used when neither the config file nor a flag names a server.
const DefaultServerURL = "http://localhost:8080"

// ClientConfig is the reader's persisted settings.
type ClientConfig struct {
	ServerURL string `yaml:"server_url"`
	Token     string `yaml:"token,omitempty"`
	DeviceID  string `yaml:"device_id"`
	LogFile   string `yaml:"log_file,omitempty"`
	LogLevel  string `yaml:"log_level,omitempty"`
}

// DefaultConfigPath returns ~/.config/readtrack/config.yaml or the platform equivalent.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, "readtrack", "config.yaml"), nil
}

// LoadClientConfig reads the config at path. A missing file yields defaults. On first
// use a device ID is generated and the file is written back so the ID stays stable.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{}

	data, err := os.ReadFile(path) //#nosec G304 -- user-chosen config path
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(filepath.Dir(path), "reader.log")
	}

	if cfg.DeviceID == "" {
		cfg.DeviceID = uuid.NewString()
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Save writes the config to path with owner-only permissions, since it holds a token.
func (c *ClientConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
