// Package config loads plantdoc settings from an optional YAML file and .env.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level settings tree. Zero values in the file fall back to Default.
type Config struct {
	Server struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
		MaxWidth        int           `yaml:"max_width"`
		MaxHeight       int           `yaml:"max_height"`
		MaxPixels       int64         `yaml:"max_pixels"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Classifier struct {
		ModelPath    string `yaml:"model_path"`
		MetadataPath string `yaml:"metadata_path"`
		LibraryPath  string `yaml:"onnxruntime_lib"`
		TopK         int    `yaml:"top_k"`
	} `yaml:"classifier"`

	LLM struct {
		APIKey      string  `yaml:"api_key"`
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"llm"`
}

func Default() *Config {
	c := &Config{}
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 7860
	c.Server.MaxUploadBytes = 10 << 20
	c.Server.MaxWidth = 12000
	c.Server.MaxHeight = 12000
	c.Server.MaxPixels = 48_000_000
	c.Server.RequestTimeout = 2 * time.Minute
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Log.Level = "info"
	c.Log.Format = "console"
	c.Classifier.ModelPath = "models/model.onnx"
	c.Classifier.MetadataPath = "models/model_metadata.json"
	c.Classifier.TopK = 3
	c.LLM.BaseURL = "https://api.groq.com/openai/v1"
	c.LLM.Model = "llama-3.3-70b-versatile"
	c.LLM.Temperature = 0.7
	c.LLM.MaxTokens = 1024
	return c
}

// Load reads path over the defaults. A missing file is only an error when required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	if c.Server.MaxWidth <= 0 || c.Server.MaxHeight <= 0 || c.Server.MaxPixels <= 0 {
		return fmt.Errorf("server.max_width, server.max_height and server.max_pixels must be positive")
	}
	if c.Classifier.TopK <= 0 {
		return fmt.Errorf("classifier.top_k must be positive")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format %q must be console or json", c.Log.Format)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
