// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AIConfig struct {
	Provider        string        `yaml:"provider"` // gemini | gemini-sdk | openai | noop
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	OpenAIKey       string        `yaml:"openai_key"`
	Model           string        `yaml:"model"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent AI calls
	MaxRetries      int           `yaml:"max_retries"`
	InitialBackoff  time.Duration `yaml:"initial_backoff"`
	Timeout         time.Duration `yaml:"timeout"` // per-attempt HTTP timeout
}

type ClassLimit struct {
	Ceiling int           `yaml:"ceiling"`
	Window  time.Duration `yaml:"window"`
}

type LimitsConfig struct {
	Create ClassLimit `yaml:"create"`
	Status ClassLimit `yaml:"status"`
}

type JobsConfig struct {
	MaxAge       time.Duration `yaml:"max_age"`       // sweep threshold, any status
	CleanupDelay time.Duration `yaml:"cleanup_delay"` // grace after a terminal poll
	Workers      int           `yaml:"workers"`       // generation workflow pool size
}

type RedisConfig struct {
	URL      string `yaml:"url"` // empty = in-process store and limiter
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	AI     AIConfig     `yaml:"ai"`
	Limits LimitsConfig `yaml:"limits"`
	Jobs   JobsConfig   `yaml:"jobs"`
	Redis  RedisConfig  `yaml:"redis"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.Runtime.Dev = dev

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "gemini"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-2.0-flash"
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.MaxRetries <= 0 {
		cfg.AI.MaxRetries = 3
	}
	if cfg.AI.InitialBackoff <= 0 {
		cfg.AI.InitialBackoff = 2 * time.Second
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 30 * time.Second
	}
	if cfg.Limits.Create.Ceiling <= 0 {
		cfg.Limits.Create.Ceiling = 5
	}
	if cfg.Limits.Create.Window <= 0 {
		cfg.Limits.Create.Window = time.Minute
	}
	if cfg.Limits.Status.Ceiling <= 0 {
		cfg.Limits.Status.Ceiling = 60
	}
	if cfg.Limits.Status.Window <= 0 {
		cfg.Limits.Status.Window = time.Minute
	}
	if cfg.Jobs.MaxAge <= 0 {
		cfg.Jobs.MaxAge = 10 * time.Minute
	}
	if cfg.Jobs.CleanupDelay <= 0 {
		cfg.Jobs.CleanupDelay = 30 * time.Second
	}
	if cfg.Jobs.Workers <= 0 {
		cfg.Jobs.Workers = 8
	}
}

// validate fails fast on configuration the process cannot run without.
// A missing credential must surface at boot, not as silent degradation
// on the first generation request.
func (cfg *Config) validate() error {
	switch cfg.AI.Provider {
	case "gemini", "gemini-sdk":
		if cfg.AI.GeminiKey == "" {
			return errors.New("ai.gemini_key is required for provider " + cfg.AI.Provider)
		}
	case "openai":
		if cfg.AI.OpenAIKey == "" {
			return errors.New("ai.openai_key is required for provider openai")
		}
	case "noop":
		if !cfg.Runtime.Dev {
			return errors.New("ai.provider=noop is only valid with -dev")
		}
	default:
		return fmt.Errorf("unknown ai.provider %q", cfg.AI.Provider)
	}
	return nil
}
