package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable holding an optional YAML config path
const ConfigFileEnv = "SENTINEL_CONFIG"

type Config struct {
	Web     WebConfig     `yaml:"web" envPrefix:"WEB_"`
	LLM     LLMConfig     `yaml:"llm" envPrefix:"LLM_"`
	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
	GitHub  GitHubConfig  `yaml:"github" envPrefix:"GITHUB_"`
	Log     LogConfig     `yaml:"log" envPrefix:"LOG_"`
}

type WebConfig struct {
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR"`
}

type LLMConfig struct {
	// Provider is "gemini" or the name of an OpenAI-compatible provider
	// ("openai", "ollama", "localai", "lm-studio")
	Provider string `yaml:"provider" env:"PROVIDER"`
	Model    string `yaml:"model" env:"MODEL"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL"`
	// ApiKey is used only while the settings store holds no credential
	ApiKey string `yaml:"api_key" env:"API_KEY"`
}

type StorageConfig struct {
	// DBPath is the SQLite file; empty keeps everything in memory
	DBPath      string `yaml:"db_path" env:"DB_PATH"`
	MaxFileSize int64  `yaml:"max_file_size" env:"MAX_FILE_SIZE"`
}

type GitHubConfig struct {
	Token string `yaml:"token" env:"TOKEN"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Web: WebConfig{ListenAddr: ":8081"},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
		},
		Storage: StorageConfig{
			DBPath:      "sentinel.db",
			MaxFileSize: 1 << 20,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration: defaults, then the YAML file (path argument or
// SENTINEL_CONFIG), then environment variables. A .env file is loaded if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the fields that have no sensible fallback
func (c *Config) Validate() error {
	if c.Web.ListenAddr == "" {
		return errors.New("web listen address is required")
	}
	if c.LLM.Provider == "" {
		return errors.New("llm provider is required")
	}
	if c.LLM.Model == "" {
		return errors.New("llm model is required")
	}
	if c.LLM.Provider != "gemini" && c.LLM.BaseURL == "" {
		return fmt.Errorf("llm base url is required for provider %q", c.LLM.Provider)
	}
	if c.Storage.MaxFileSize <= 0 {
		return errors.New("storage max file size must be positive")
	}
	return nil
}
