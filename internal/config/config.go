// Package config loads platemap settings from a YAML file, environment
// variables and command-line flags through viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"platemap/internal/blob"
	"platemap/pkg/domain"
)

// EnvPrefix prefixes every environment variable override, e.g.
// PLATEMAP_IMPORT_CHUNK_CAPACITY for import.chunk_capacity.
const EnvPrefix = "PLATEMAP"

// Config represents the complete platemap configuration
type Config struct {
	Import  ImportConfig  `mapstructure:"import"`
	Export  ExportConfig  `mapstructure:"export"`
	Blob    blob.Config   `mapstructure:"blob"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Schema  SchemaConfig  `mapstructure:"schema"`
}

// ImportConfig controls how documents are parsed and chunked
type ImportConfig struct {
	// Category applied to every imported well and plate
	Category string `mapstructure:"category"`
	// ChunkCapacity is the number of wells per output plate
	ChunkCapacity int `mapstructure:"chunk_capacity"`
	// FinalizeLayout recomputes row/column/index from the chunked position
	FinalizeLayout bool `mapstructure:"finalize_layout"`
	// Delimiter is the single-character field separator of input documents
	Delimiter string `mapstructure:"delimiter"`
}

// ExportConfig controls rendered artifacts
type ExportConfig struct {
	// Formats lists the encodings written for every view: csv, json, yaml
	Formats []string `mapstructure:"formats"`
	// Prefix is the key prefix artifacts are stored under
	Prefix string `mapstructure:"prefix"`
	// Overwrite replaces existing artifacts
	Overwrite bool `mapstructure:"overwrite"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
}

// MetricsConfig controls the Prometheus textfile dump
type MetricsConfig struct {
	// Textfile is written after every command when set
	Textfile string `mapstructure:"textfile"`
}

// SchemaConfig extends the built-in category registry
type SchemaConfig struct {
	Categories []domain.CategoryDefinition `mapstructure:"categories"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			ChunkCapacity:  24,
			FinalizeLayout: true,
			Delimiter:      ",",
		},
		Export: ExportConfig{
			Formats: []string{"csv"},
			Prefix:  "export",
		},
		Blob: blob.Config{
			Driver: blob.DriverFilesystem,
			FSRoot: ".",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// SetDefaults registers every default on v so keys resolve without a
// config file.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("import.category", defaults.Import.Category)
	v.SetDefault("import.chunk_capacity", defaults.Import.ChunkCapacity)
	v.SetDefault("import.finalize_layout", defaults.Import.FinalizeLayout)
	v.SetDefault("import.delimiter", defaults.Import.Delimiter)

	v.SetDefault("export.formats", defaults.Export.Formats)
	v.SetDefault("export.prefix", defaults.Export.Prefix)
	v.SetDefault("export.overwrite", defaults.Export.Overwrite)

	v.SetDefault("blob.driver", string(defaults.Blob.Driver))
	v.SetDefault("blob.fs_root", defaults.Blob.FSRoot)
	v.SetDefault("blob.s3.region", defaults.Blob.S3.Region)
	v.SetDefault("blob.s3.bucket", defaults.Blob.S3.Bucket)
	v.SetDefault("blob.s3.endpoint", defaults.Blob.S3.Endpoint)
	v.SetDefault("blob.s3.access_key_id", defaults.Blob.S3.AccessKeyID)
	v.SetDefault("blob.s3.secret_access_key", defaults.Blob.S3.SecretAccessKey)
	v.SetDefault("blob.s3.session_token", defaults.Blob.S3.SessionToken)
	v.SetDefault("blob.s3.path_style", defaults.Blob.S3.PathStyle)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("metrics.textfile", defaults.Metrics.Textfile)
}

// New returns a viper instance with defaults and environment overrides
// registered. When file is set it is read; a missing file is an error.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	return v, nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Comma returns the import delimiter as a rune.
func (c *ImportConfig) Comma() rune {
	r := []rune(c.Delimiter)
	if len(r) == 0 {
		return ','
	}
	if c.Delimiter == `\t` {
		return '\t'
	}
	return r[0]
}

// Registry builds the schema registry with the configured extra categories.
func (c *Config) Registry() (*domain.Registry, error) {
	if len(c.Schema.Categories) == 0 {
		return domain.DefaultRegistry(), nil
	}
	return domain.NewRegistry(c.Schema.Categories...)
}
