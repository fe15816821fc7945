package config

import (
	"fmt"
	"slices"
	"strings"

	"platemap/internal/blob"
	"platemap/pkg/domain"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "import.chunk_capacity")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidFormats returns the list of valid export formats
func ValidFormats() []string {
	return []string{"csv", "json", "yaml"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateImport()...)
	errors = append(errors, c.validateExport()...)
	errors = append(errors, c.validateBlob()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateSchema()...)
	return errors
}

func (c *Config) validateImport() []ValidationError {
	var errors []ValidationError
	if c.Import.ChunkCapacity != 0 {
		if _, err := domain.DimensionsFor(c.Import.ChunkCapacity); err != nil {
			errors = append(errors, ValidationError{
				Field:   "import.chunk_capacity",
				Value:   c.Import.ChunkCapacity,
				Message: fmt.Sprintf("must be one of %v", domain.SupportedSizes()),
			})
		}
	}
	if d := c.Import.Delimiter; d != "" && d != `\t` && len([]rune(d)) != 1 {
		errors = append(errors, ValidationError{
			Field:   "import.delimiter",
			Value:   d,
			Message: "must be a single character",
		})
	}
	return errors
}

func (c *Config) validateExport() []ValidationError {
	var errors []ValidationError
	for _, f := range c.Export.Formats {
		if !slices.Contains(ValidFormats(), strings.ToLower(f)) {
			errors = append(errors, ValidationError{
				Field:   "export.formats",
				Value:   f,
				Message: fmt.Sprintf("must be one of %v", ValidFormats()),
			})
		}
	}
	return errors
}

func (c *Config) validateBlob() []ValidationError {
	var errors []ValidationError
	switch c.Blob.Driver {
	case "", blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			errors = append(errors, ValidationError{
				Field:   "blob.s3.bucket",
				Value:   c.Blob.S3.Bucket,
				Message: "is required for the s3 driver",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "blob.driver",
			Value:   c.Blob.Driver,
			Message: "must be one of fs, s3, memory",
		})
	}
	return errors
}

func (c *Config) validateLogging() []ValidationError {
	if c.Logging.Level == "" || slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		return nil
	}
	return []ValidationError{{
		Field:   "logging.level",
		Value:   c.Logging.Level,
		Message: fmt.Sprintf("must be one of %v", ValidLogLevels()),
	}}
}

func (c *Config) validateSchema() []ValidationError {
	if len(c.Schema.Categories) == 0 {
		return nil
	}
	if _, err := domain.NewRegistry(c.Schema.Categories...); err != nil {
		return []ValidationError{{
			Field:   "schema.categories",
			Value:   len(c.Schema.Categories),
			Message: err.Error(),
		}}
	}
	return nil
}
