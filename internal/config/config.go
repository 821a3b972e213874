package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cpuburn/internal/logging"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ConfigFileName = "cpuburn.yaml"

const defaultStopGrace = 250 * time.Millisecond

// Config covers ambient behaviour only. The set of launched workers is
// fixed in the launcher and cannot be changed here.
type Config struct {
	Log       LogConfig     `yaml:"log"`
	StopGrace time.Duration `yaml:"stop_grace"`

	path string
}

// LogConfig selects the log level and destination. An empty File means
// stderr.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

func Default() *Config {
	return &Config{
		Log:       LogConfig{Level: "info"},
		StopGrace: defaultStopGrace,
	}
}

// Path is the absolute path of the file the config was read from, or ""
// for defaults.
func (c *Config) Path() string { return c.path }

func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if cfg.StopGrace < 0 {
		return fmt.Errorf("stop_grace must not be negative, got %s", cfg.StopGrace)
	}
	return nil
}

func GetConfigPath() string {
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, ConfigFileName)
}

// Load reads the config at path. An empty path means cpuburn.yaml in the
// working directory, and a missing default file yields Default(). A path
// given explicitly must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = GetConfigPath()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	envMap, err := loadDotEnvIfExists(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(interpolateEnv(string(raw), envMap)), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.path = abs
	return cfg, nil
}

// OpenLog returns the writer for log lines and a close func.
func (c *Config) OpenLog() (io.Writer, func() error, error) {
	if c.Log.File == "" {
		return os.Stderr, func() error { return nil }, nil
	}
	f, err := os.OpenFile(c.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f.Close, nil
}

// loadDotEnvIfExists reads dir/.env into a map. A missing file is not an error.
func loadDotEnvIfExists(dir string) (map[string]string, error) {
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return map[string]string{}, nil
	}

	m, err := godotenv.Read(envPath)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", envPath, err)
	}
	return m, nil
}

// interpolateEnv replaces ${VAR} and $VAR. Precedence: OS env > envMap.
// Unset variables become the empty string.
func interpolateEnv(input string, envMap map[string]string) string {
	return os.Expand(input, func(name string) string {
		if v := os.Getenv(name); v != "" {
			return v
		}
		if v, ok := envMap[name]; ok {
			return v
		}
		logging.Warn("config.env_missing", map[string]interface{}{"var": name})
		return ""
	})
}
