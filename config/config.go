package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath          = "transportnsw.yml"
	DefaultHistoryDriver = "sqlite"
	DefaultHistoryDir    = "."

	// Overrides api_key when set.
	APIKeyEnv = "TFNSW_API_KEY"
)

// Where looked up departures are recorded.
type HistoryConfig struct {
	Driver string `yaml:"driver" validate:"oneof=memory sqlite postgres"`

	// Directory holding the sqlite database. In memory if blank.
	Directory string `yaml:"directory"`

	// Postgres connection string.
	DSN string `yaml:"dsn" validate:"required_if=Driver postgres"`
}

type Config struct {
	APIKey     string        `yaml:"api_key" validate:"required"`
	Endpoint   string        `yaml:"endpoint" validate:"required,url"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxResults int           `yaml:"max_results" validate:"gte=1"`
	History    HistoryConfig `yaml:"history"`
}

// Configuration used when there is no file. Endpoint, timeout and max
// results match the library defaults.
func Default(endpoint string, timeout time.Duration, maxResults int) *Config {
	return &Config{
		Endpoint:   endpoint,
		Timeout:    timeout,
		MaxResults: maxResults,
		History: HistoryConfig{
			Driver:    DefaultHistoryDriver,
			Directory: DefaultHistoryDir,
		},
	}
}

// Reads YAML from path on top of base. A missing file is not an
// error, base is used as is. The API key environment variable wins
// over the file.
func Load(path string, base *Config) (*Config, error) {
	cfg := *base

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	}

	if key, found := os.LookupEnv(APIKeyEnv); found && key != "" {
		cfg.APIKey = key
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
