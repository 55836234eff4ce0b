package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateBackend()...)
	errors = append(errors, c.validateSetup()...)
	errors = append(errors, ValidateBenchmark("benchmark", &c.Benchmark)...)

	for _, name := range c.ListScenarios() {
		bench := c.GetScenarioBenchmark(name)
		errors = append(errors, ValidateBenchmark(fmt.Sprintf("scenarios.%s.benchmark", name), &bench)...)
	}

	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateBackend() ValidationErrors {
	var errors ValidationErrors

	switch c.Backend.Kind {
	case BackendDolt:
		d := c.Backend.Dolt
		if d.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "backend.dolt.host",
				Message: "host is required",
			})
		}
		if d.Port <= 0 || d.Port > 65535 {
			errors = append(errors, ValidationError{
				Field:   "backend.dolt.port",
				Message: "port must be between 1 and 65535",
			})
		}
		if d.User == "" {
			errors = append(errors, ValidationError{
				Field:   "backend.dolt.user",
				Message: "user is required",
			})
		}
		validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
		if !validTLS[d.TLS] {
			errors = append(errors, ValidationError{
				Field:   "backend.dolt.tls",
				Message: "tls must be 'disable', 'preferred', or 'required'",
			})
		}
		if d.Retries < 0 {
			errors = append(errors, ValidationError{
				Field:   "backend.dolt.retries",
				Message: "retries cannot be negative",
			})
		}
	case BackendNeon:
		n := c.Backend.Neon
		if n.APIKey == "" {
			errors = append(errors, ValidationError{
				Field:   "backend.neon.api_key",
				Message: "api_key is required (set it, or NEON_API_KEY in the environment or env_file)",
			})
		}
		if n.ProjectID == "" {
			errors = append(errors, ValidationError{
				Field:   "backend.neon.project_id",
				Message: "project_id is required",
			})
		}
		if n.APIBaseURL == "" {
			errors = append(errors, ValidationError{
				Field:   "backend.neon.api_base_url",
				Message: "api_base_url is required",
			})
		}
		if n.Timeout < 0 {
			errors = append(errors, ValidationError{
				Field:   "backend.neon.timeout",
				Message: "timeout cannot be negative",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "backend.kind",
			Message: "kind must be 'dolt' or 'neon'",
		})
	}

	return errors
}

func (c *Config) validateSetup() ValidationErrors {
	var errors ValidationErrors

	if c.Setup.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "setup.database",
			Message: "database name is required",
		})
	}
	if c.Setup.Schema != "" && c.Setup.SchemaPath != "" {
		errors = append(errors, ValidationError{
			Field:   "setup.schema",
			Message: "schema and schema_path are mutually exclusive",
		})
	}

	return errors
}

// ValidateBenchmark checks one resolved benchmark block. prefix names the
// block in error messages.
func ValidateBenchmark(prefix string, b *BenchmarkConfig) ValidationErrors {
	var errors ValidationErrors

	if !slices.Contains(Workloads, b.Workload) {
		errors = append(errors, ValidationError{
			Field:   prefix + ".workload",
			Message: fmt.Sprintf("workload must be one of: %s", strings.Join(Workloads, ", ")),
		})
	}
	if b.RootBranch == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".root_branch",
			Message: "root_branch is required",
		})
	}
	if b.Depth < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".depth",
			Message: "depth cannot be negative",
		})
	}
	if b.Degree < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".degree",
			Message: "degree cannot be negative",
		})
	}
	if b.InsertsPerBranch < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".inserts_per_branch",
			Message: "inserts_per_branch cannot be negative",
		})
	}
	if b.RowsPerTable < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".rows_per_table",
			Message: "rows_per_table cannot be negative",
		})
	}
	if b.ProgressInterval < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".progress_interval",
			Message: "progress_interval cannot be negative",
		})
	}

	s := b.Sampling
	if s.Rate <= 0 || s.Rate > 1 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".sampling.rate",
			Message: "rate must be in (0, 1]",
		})
	}
	if s.Cap < 1 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".sampling.cap",
			Message: "cap must be at least 1",
		})
	}
	if s.SortIndex < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".sampling.sort_index",
			Message: "sort_index cannot be negative",
		})
	}
	switch s.Distribution.Kind {
	case "uniform":
	case "beta":
		if s.Distribution.Alpha <= 0 || s.Distribution.Beta <= 0 {
			errors = append(errors, ValidationError{
				Field:   prefix + ".sampling.distribution",
				Message: "beta distribution needs alpha > 0 and beta > 0",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   prefix + ".sampling.distribution.kind",
			Message: "kind must be 'uniform' or 'beta'",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
