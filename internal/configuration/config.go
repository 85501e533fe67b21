// Package configuration loads and validates process configuration for the
// worker, the trigger server, and the starter CLI. Configuration is a YAML
// file layered over built-in defaults; secrets are always pulled from the
// environment, never from the file.
package configuration

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/danielyudicarvalho/case-scoring/internal/llm"
	"github.com/danielyudicarvalho/case-scoring/internal/notify"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard-library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// TemporalConfig locates the Temporal cluster and task queue.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port"  validate:"required"`
	Namespace string `yaml:"namespace"  validate:"required"`
	TaskQueue string `yaml:"task_queue" validate:"required"`
}

// CompletionConfig configures the completion client. The API key is read
// from the environment variable named by api_key_env.
type CompletionConfig struct {
	Endpoint          string   `yaml:"endpoint"`
	APIKeyEnv         string   `yaml:"api_key_env"`
	Model             string   `yaml:"model"`
	Timeout           Duration `yaml:"timeout"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	Burst             int      `yaml:"burst"`
}

// StorageConfig names the blob buckets and key-value tables the pipeline
// reads and writes.
type StorageConfig struct {
	BlobRoot        string `yaml:"blob_root"        validate:"required"`
	DocumentsBucket string `yaml:"documents_bucket" validate:"required"`
	PromptsBucket   string `yaml:"prompts_bucket"   validate:"required"`
	DatabasePath    string `yaml:"database_path"    validate:"required"`
	WeightsTable    string `yaml:"weights_table"    validate:"required"`
	HistoryTable    string `yaml:"history_table"    validate:"required"`
}

// NotificationConfig selects how score reports are delivered. Mode "log"
// writes reports to the process log; mode "smtp" sends mail. The SMTP
// password comes from the environment variable named by password_env.
type NotificationConfig struct {
	Mode              string `yaml:"mode" validate:"oneof=log smtp"`
	FallbackRecipient string `yaml:"fallback_recipient"`
	SMTP              struct {
		Addr        string `yaml:"addr"`
		Username    string `yaml:"username"`
		PasswordEnv string `yaml:"password_env"`
		From        string `yaml:"from"`
	} `yaml:"smtp"`
}

// ServerConfig configures the trigger HTTP server.
type ServerConfig struct {
	Addr            string   `yaml:"addr" validate:"required"`
	UploadTokenTTL  Duration `yaml:"upload_token_ttl"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// Config is the root process configuration.
type Config struct {
	Temporal     TemporalConfig     `yaml:"temporal"     validate:"required"`
	Completion   CompletionConfig   `yaml:"completion"`
	Storage      StorageConfig      `yaml:"storage"      validate:"required"`
	Notification NotificationConfig `yaml:"notification"`
	Server       ServerConfig       `yaml:"server"`
	Jurisdiction string             `yaml:"jurisdiction"`
	MaxTokens    int                `yaml:"max_tokens"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in configuration a YAML file overlays.
func Default() *Config {
	cfg := &Config{
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: "case-scoring",
		},
		Completion: CompletionConfig{
			APIKeyEnv:         "ANTHROPIC_API_KEY",
			Model:             "claude-sonnet-4-20250514",
			Timeout:           Duration(60 * time.Second),
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Storage: StorageConfig{
			BlobRoot:        "data/blobs",
			DocumentsBucket: "case-documents",
			PromptsBucket:   "case-prompts",
			DatabasePath:    "data/casescore.db",
			WeightsTable:    "jurisdiction_weights",
			HistoryTable:    "score_history",
		},
		Notification: NotificationConfig{
			Mode: "log",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			UploadTokenTTL:  Duration(15 * time.Minute),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Jurisdiction: "san_diego",
		MaxTokens:    600,
	}
	return cfg
}

// Load builds the effective configuration: defaults, then the YAML file at
// path if one is given, then validation. Secrets are not resolved here; see
// CompletionClientConfig and SMTPConfig.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// CompletionClientConfig resolves the completion-client settings, reading
// the API key from the environment.
func (c *Config) CompletionClientConfig() llm.Config {
	return llm.Config{
		Endpoint:          c.Completion.Endpoint,
		APIKey:            os.Getenv(c.Completion.APIKeyEnv),
		Model:             c.Completion.Model,
		Timeout:           c.Completion.Timeout.Std(),
		RequestsPerSecond: c.Completion.RequestsPerSecond,
		Burst:             c.Completion.Burst,
	}
}

// SMTPConfig resolves SMTP settings, reading the password from the
// environment.
func (c *Config) SMTPConfig() notify.SMTPConfig {
	return notify.SMTPConfig{
		Addr:     c.Notification.SMTP.Addr,
		Username: c.Notification.SMTP.Username,
		Password: os.Getenv(c.Notification.SMTP.PasswordEnv),
		From:     c.Notification.SMTP.From,
	}
}
