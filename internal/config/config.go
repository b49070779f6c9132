package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"finlit/internal/vertex"
)

const (
	TextProviderVertex = "vertex"
	TextProviderArk    = "ark"
)

// ConfigError means required configuration is missing. It is fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Config is the process-wide configuration, built once in main and passed
// down explicitly.
type Config struct {
	Project      string        `yaml:"project"`
	Region       string        `yaml:"region"`
	GeminiModel  string        `yaml:"gemini_model_id"`
	VeoModel     string        `yaml:"veo_model_id"`
	VeoOutputGCS string        `yaml:"veo_output_gcs"`
	PollInterval time.Duration `yaml:"veo_poll_interval"`
	PollTimeout  time.Duration `yaml:"veo_poll_timeout"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	MaxIters     int           `yaml:"max_iters"`
	Port         string        `yaml:"port"`
	TextProvider string        `yaml:"text_provider"`
	ArkAPIKey    string        `yaml:"-"`
	ArkModel     string        `yaml:"ark_model"`
	Mock         bool          `yaml:"mock"`
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
	LogFile      string        `yaml:"log_file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Region:       "us-central1",
		GeminiModel:  "google/gemini-2.5-pro",
		VeoModel:     "veo-3.0-fast-generate-001",
		PollInterval: 3 * time.Second,
		PollTimeout:  900 * time.Second,
		HTTPTimeout:  60 * time.Second,
		MaxIters:     2,
		Port:         "8080",
		TextProvider: TextProviderVertex,
		ArkModel:     "ep-20250220181854-c8s82",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Load reads defaults, then the YAML file named by CONFIG_FILE (if any),
// then environment variables.
func Load() (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Project = firstEnv(cfg.Project, "GCP_PROJECT", "GOOGLE_CLOUD_PROJECT")
	cfg.Region = firstEnv(cfg.Region, "GCP_REGION", "GOOGLE_CLOUD_REGION")
	cfg.GeminiModel = firstEnv(cfg.GeminiModel, "GEMINI_MODEL_ID")
	cfg.VeoModel = firstEnv(cfg.VeoModel, "VEO_MODEL_ID")
	cfg.VeoOutputGCS = firstEnv(cfg.VeoOutputGCS, "VEO_OUTPUT_GCS")
	cfg.PollInterval = envDuration("VEO_POLL_INTERVAL", cfg.PollInterval)
	cfg.PollTimeout = envDuration("VEO_POLL_TIMEOUT", cfg.PollTimeout)
	cfg.HTTPTimeout = envDuration("HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.MaxIters = envInt("MAX_ITERS", cfg.MaxIters)
	cfg.Port = firstEnv(cfg.Port, "PORT")
	cfg.TextProvider = strings.ToLower(firstEnv(cfg.TextProvider, "TEXT_PROVIDER"))
	cfg.ArkAPIKey = firstEnv(cfg.ArkAPIKey, "ARK_API_KEY")
	cfg.ArkModel = firstEnv(cfg.ArkModel, "ARK_MODEL")
	cfg.Mock = envBool("VERTEX_MOCK", cfg.Mock)
	cfg.LogLevel = firstEnv(cfg.LogLevel, "LOG_LEVEL")
	cfg.LogFormat = firstEnv(cfg.LogFormat, "LOG_FORMAT")
	cfg.LogFile = firstEnv(cfg.LogFile, "LOG_FILE")
}

// Validate reports the first missing required setting as a *ConfigError.
func (c Config) Validate() error {
	if c.Project == "" && !c.Mock {
		return &ConfigError{Field: "project", Reason: "set GCP_PROJECT or GOOGLE_CLOUD_PROJECT"}
	}
	switch c.TextProvider {
	case TextProviderVertex:
	case TextProviderArk:
		if c.ArkAPIKey == "" && !c.Mock {
			return &ConfigError{Field: "ark_api_key", Reason: "set ARK_API_KEY when TEXT_PROVIDER=ark"}
		}
	default:
		return &ConfigError{Field: "text_provider", Reason: fmt.Sprintf("unknown provider %q", c.TextProvider)}
	}
	if c.MaxIters < 1 {
		return &ConfigError{Field: "max_iters", Reason: "must be at least 1"}
	}
	return nil
}

// Vertex returns the remote generation client settings.
func (c Config) Vertex() vertex.Config {
	return vertex.Config{
		Project:       c.Project,
		Region:        c.Region,
		GeminiModelID: c.GeminiModel,
		VeoModelID:    c.VeoModel,
		OutputGCS:     c.VeoOutputGCS,
		PollInterval:  c.PollInterval,
		PollTimeout:   c.PollTimeout,
		HTTPTimeout:   c.HTTPTimeout,
		Mock:          c.Mock,
	}
}

func firstEnv(def string, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v
		}
	}
	return def
}

func envInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// envDuration accepts Go durations ("90s") or plain seconds ("90").
func envDuration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func envBool(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
