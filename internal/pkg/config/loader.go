// Package config provides fail-open loaders for environment-based configuration.
//
// Every loader returns a usable value: an unset variable yields the default
// silently, an unparseable or invalid one yields the default plus a warning.
// Callers surface the warnings through logs and ConfigMetrics instead of
// refusing to start.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// LoadResult is the outcome of loading one configuration value.
//
// Fields:
//   - Value: the loaded value, or the default if a fallback was applied
//   - Warning: human-readable reason for the fallback (empty otherwise)
//   - FallbackApplied: true if the environment value was rejected
type LoadResult[T any] struct {
	Value           T
	Warning         string
	FallbackApplied bool
}

// LoadEnvString returns the value of envKey, or defaultValue if it is unset or empty.
// No validation is performed.
func LoadEnvString(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

// LoadEnv reads envKey, converts it with parse and checks it with validate.
// validate may be nil.
//
// Warning format:
//
//	"Invalid {envKey}='{value}': {error}, falling back to default '{default}'"
func LoadEnv[T any](envKey string, defaultValue T, parse func(string) (T, error), validate func(T) error) LoadResult[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[T]{Value: defaultValue}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return LoadResult[T]{
			Value:           defaultValue,
			Warning:         fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, err, defaultValue),
			FallbackApplied: true,
		}
	}
	return LoadResult[T]{Value: v}
}

// LoadEnvWithFallback loads a string value, validating it with validator.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult[string] {
	return LoadEnv(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a Go duration string such as "30s" or "1h30m".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	return LoadEnv(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult[int] {
	return LoadEnv(envKey, defaultValue, func(s string) (int, error) {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return n, nil
	}, validator)
}

// LoadEnvBool loads a boolean accepted by strconv.ParseBool
// ("1", "t", "true", "0", "f", "false" and their capitalized forms).
func LoadEnvBool(envKey string, defaultValue bool) LoadResult[bool] {
	return LoadEnv(envKey, defaultValue, func(s string) (bool, error) {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
		}
		return b, nil
	}, nil)
}

// LoadEnvChoice loads a string that must be one of choices (case-insensitive).
// The returned value is lower-cased.
func LoadEnvChoice(envKey, defaultValue string, choices ...string) LoadResult[string] {
	return LoadEnv(envKey, defaultValue, func(s string) (string, error) {
		return strings.ToLower(strings.TrimSpace(s)), nil
	}, func(s string) error {
		return ValidateOneOf(s, choices...)
	})
}

// Collector accumulates fallbacks while a component loads its configuration.
// It may be used with a nil metrics instance.
type Collector struct {
	warnings []string
	fields   []string
	metrics  *ConfigMetrics
}

// NewCollector creates a Collector that records fallbacks into metrics.
func NewCollector(metrics *ConfigMetrics) *Collector {
	return &Collector{metrics: metrics}
}

// Use returns r.Value, recording a fallback under field when one was applied.
func Use[T any](c *Collector, field string, r LoadResult[T]) T {
	if r.FallbackApplied {
		c.warnings = append(c.warnings, r.Warning)
		c.fields = append(c.fields, field)
		if c.metrics != nil {
			c.metrics.RecordValidationError(field)
			c.metrics.RecordFallback(field, "default")
		}
	}
	return r.Value
}

// Warnings returns the fallback warnings recorded so far.
func (c *Collector) Warnings() []string {
	return slices.Clone(c.warnings)
}

// Fields returns the names of the fields that fell back to their default.
func (c *Collector) Fields() []string {
	return slices.Clone(c.fields)
}

// Finish updates the fallback gauge and load timestamp.
// It reports whether any fallback was applied.
func (c *Collector) Finish() bool {
	active := len(c.warnings) > 0
	if c.metrics != nil {
		c.metrics.SetFallbackActive(active)
		c.metrics.RecordLoadTimestamp()
	}
	return active
}
