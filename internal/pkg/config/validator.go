package config

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"time"
)

// ValidateDuration checks that duration lies in [min, max].
//
// Example:
//
//	err := ValidateDuration(15*time.Minute, time.Minute, 24*time.Hour)
func ValidateDuration(duration, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}
	if duration < min {
		return fmt.Errorf("duration %v is below minimum %v", duration, min)
	}
	if duration > max {
		return fmt.Errorf("duration %v exceeds maximum %v", duration, max)
	}
	return nil
}

// ValidateIntRange checks that value lies in [min, max].
func ValidateIntRange(value, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}
	if value < min {
		return fmt.Errorf("value %d is below minimum %d", value, min)
	}
	if value > max {
		return fmt.Errorf("value %d exceeds maximum %d", value, max)
	}
	return nil
}

// ValidatePositiveDuration rejects zero and negative durations.
func ValidatePositiveDuration(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", duration)
	}
	return nil
}

// ValidateOneOf checks that value is one of choices.
func ValidateOneOf(value string, choices ...string) error {
	if !slices.Contains(choices, value) {
		return fmt.Errorf("value %q is not one of %v", value, choices)
	}
	return nil
}

// ValidateListenAddr checks a "host:port" listen address such as ":8080"
// or "127.0.0.1:8080". The host may be empty; the port must be 1-65535.
func ValidateListenAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port %q in listen address", port)
	}
	return ValidateIntRange(n, 1, 65535)
}
