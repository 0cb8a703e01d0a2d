// Package config loads the options that select and configure a storage provider.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid data options")

const EnvPrefix = "DATA_"

type Options struct {
	// Provider names a factory registered in a provider.Registry.
	Provider         string `yaml:"provider" env:"PROVIDER" validate:"required"`
	ConnectionString string `yaml:"connectionString" env:"CONNECTION_STRING" validate:"required_unless=Provider memory"`
	// SchemaName qualifies relational tables; document stores use it as the database name.
	SchemaName            string `yaml:"schemaName,omitempty" env:"SCHEMA_NAME"`
	AutoMigrate           bool   `yaml:"autoMigrate" env:"AUTO_MIGRATE"`
	EnableDetailedLogging bool   `yaml:"enableDetailedLogging" env:"ENABLE_DETAILED_LOGGING"`
}

// Load reads the yaml file at path, when path is not empty, applies DATA_* environment overrides
// and validates the result.
func Load(path string) (Options, error) {
	var options Options
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return options, fmt.Errorf("config.Load: %w", err)
		}
		if options, err = Parse(content); err != nil {
			return options, err
		}
	}
	if err := env.ParseWithOptions(&options, env.Options{Prefix: EnvPrefix}); err != nil {
		return options, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return options, options.Validate()
}

// Parse decodes yaml options without validating them.
func Parse(content []byte) (Options, error) {
	var options Options
	if err := yaml.Unmarshal(content, &options); err != nil {
		return options, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return options, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	details := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		details = append(details, e.Field()+" "+formatValidationError(e))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(details, ", "))
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_unless":
		return "is required unless " + e.Param()
	default:
		return "is invalid"
	}
}

// Redacted returns a copy safe to print: the connection string is masked.
func (o Options) Redacted() Options {
	if o.ConnectionString != "" {
		o.ConnectionString = "****"
	}
	return o
}

func (o Options) YAML() (string, error) {
	out, err := yaml.Marshal(o)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
