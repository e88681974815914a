package config

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// LoadEnvString
// ============================================================================

func TestLoadEnvString(t *testing.T) {
	t.Setenv("TEST_STRING", "custom_value")
	assert.Equal(t, "custom_value", LoadEnvString("TEST_STRING", "default_value"))

	t.Setenv("TEST_STRING", "")
	assert.Equal(t, "default_value", LoadEnvString("TEST_STRING", "default_value"))
}

// ============================================================================
// LoadEnvDuration
// ============================================================================

func TestLoadEnvDuration(t *testing.T) {
	within := func(d time.Duration) error { return ValidateDuration(d, time.Minute, 24*time.Hour) }

	tests := []struct {
		name         string
		env          string
		want         time.Duration
		wantFallback bool
	}{
		{"unset uses default", "", 15 * time.Minute, false},
		{"valid value", "30m", 30 * time.Minute, false},
		{"unparseable", "soon", 15 * time.Minute, true},
		{"below minimum", "10s", 15 * time.Minute, true},
		{"above maximum", "48h", 15 * time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_PERIOD", tt.env)

			result := LoadEnvDuration("TEST_PERIOD", 15*time.Minute, within)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
			if tt.wantFallback {
				assert.Contains(t, result.Warning, "TEST_PERIOD")
				assert.Contains(t, result.Warning, "falling back to default '15m0s'")
			} else {
				assert.Empty(t, result.Warning)
			}
		})
	}
}

// ============================================================================
// LoadEnvInt / LoadEnvBool / LoadEnvChoice
// ============================================================================

func TestLoadEnvInt(t *testing.T) {
	inRange := func(v int) error { return ValidateIntRange(v, 1, 32) }

	t.Setenv("TEST_INT", "8")
	assert.Equal(t, 8, LoadEnvInt("TEST_INT", 4, inRange).Value)

	t.Setenv("TEST_INT", "8.5")
	r := LoadEnvInt("TEST_INT", 4, inRange)
	assert.Equal(t, 4, r.Value)
	assert.True(t, r.FallbackApplied)
	assert.Contains(t, r.Warning, "invalid integer format")

	t.Setenv("TEST_INT", "100")
	r = LoadEnvInt("TEST_INT", 4, inRange)
	assert.Equal(t, 4, r.Value)
	assert.Contains(t, r.Warning, "exceeds maximum")
}

func TestLoadEnvBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "false")
	assert.False(t, LoadEnvBool("TEST_BOOL", true).Value)

	t.Setenv("TEST_BOOL", "TRUE")
	assert.True(t, LoadEnvBool("TEST_BOOL", false).Value)

	t.Setenv("TEST_BOOL", "yes")
	r := LoadEnvBool("TEST_BOOL", true)
	assert.True(t, r.Value)
	assert.True(t, r.FallbackApplied)
}

func TestLoadEnvChoice(t *testing.T) {
	t.Setenv("TEST_DRIVER", "Postgres")
	assert.Equal(t, "postgres", LoadEnvChoice("TEST_DRIVER", "sqlite", "sqlite", "postgres", "yaml").Value)

	t.Setenv("TEST_DRIVER", "mysql")
	r := LoadEnvChoice("TEST_DRIVER", "sqlite", "sqlite", "postgres", "yaml")
	assert.Equal(t, "sqlite", r.Value)
	assert.True(t, r.FallbackApplied)
}

// ============================================================================
// Collector
// ============================================================================

func TestCollector_RecordsFallbacks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConfigMetrics(reg, "test")
	c := NewCollector(m)

	t.Setenv("GOOD", "5")
	t.Setenv("BAD", "nope")

	good := Use(c, "good", LoadEnvInt("GOOD", 1, nil))
	bad := Use(c, "bad", LoadEnvInt("BAD", 1, nil))

	assert.Equal(t, 5, good)
	assert.Equal(t, 1, bad)
	assert.Equal(t, []string{"bad"}, c.Fields())
	require.Len(t, c.Warnings(), 1)

	assert.True(t, c.Finish())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationErrorsTotal.WithLabelValues("bad")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("bad", "default")))
	assert.Greater(t, testutil.ToFloat64(m.LoadTimestamp), 0.0)
}

func TestCollector_NilMetrics(t *testing.T) {
	c := NewCollector(nil)
	t.Setenv("BAD", "nope")

	_ = Use(c, "bad", LoadEnvBool("BAD", true))

	assert.NotPanics(t, func() { c.Finish() })
}
