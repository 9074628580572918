package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the service configuration, read once at startup.
type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
		MaxPixels       int64         `yaml:"max_pixels"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Artifacts struct {
		Dir        string `yaml:"dir"`
		Model      string `yaml:"model"`
		ClassIndex string `yaml:"class_index"`
		Preprocess string `yaml:"preprocess"`
	} `yaml:"artifacts"`

	ONNX struct {
		LibraryPath string `yaml:"library_path"`
		InputName   string `yaml:"input_name"`
		OutputName  string `yaml:"output_name"`
	} `yaml:"onnx"`

	Inference struct {
		TopK int `yaml:"top_k"`
	} `yaml:"inference"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8000
	cfg.Server.MaxUploadBytes = 8 << 20
	cfg.Server.MaxPixels = 25_000_000
	cfg.Server.ShutdownTimeout = 15 * time.Second
	cfg.Artifacts.Dir = "artifacts"
	cfg.Artifacts.Model = "model.onnx"
	cfg.Artifacts.ClassIndex = "class_index.json"
	cfg.Artifacts.Preprocess = "preprocess.json"
	cfg.ONNX.InputName = "input"
	cfg.ONNX.OutputName = "output"
	cfg.Inference.TopK = 3
	cfg.Log.Level = "info"
	return cfg
}

// Load reads .env (if any), then the YAML file at path (if any), then
// applies environment overrides. Missing files fall back to defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("ARTIFACT_DIR"); v != "" {
		c.Artifacts.Dir = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.Artifacts.Model = v
	}
	if v := os.Getenv("ONNXRUNTIME_LIB"); v != "" {
		c.ONNX.LibraryPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	case c.Server.MaxUploadBytes <= 0:
		return fmt.Errorf("server.max_upload_bytes must be positive")
	case c.Server.MaxPixels <= 0:
		return fmt.Errorf("server.max_pixels must be positive")
	case c.Inference.TopK <= 0:
		return fmt.Errorf("inference.top_k must be positive")
	case c.Artifacts.Model == "" || c.Artifacts.ClassIndex == "" || c.Artifacts.Preprocess == "":
		return fmt.Errorf("artifact file names must not be empty")
	}
	return nil
}

// ModelPath resolves the model file against the artifact directory.
// Absolute paths are returned unchanged.
func (c *Config) ModelPath() string { return c.resolve(c.Artifacts.Model) }

// ClassIndexPath resolves the class index file against the artifact directory.
func (c *Config) ClassIndexPath() string { return c.resolve(c.Artifacts.ClassIndex) }

// PreprocessPath resolves the preprocessing config file against the artifact directory.
func (c *Config) PreprocessPath() string { return c.resolve(c.Artifacts.Preprocess) }

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Artifacts.Dir, name)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}
