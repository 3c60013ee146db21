package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "kafka:9092", want: []string{"kafka:9092"}},
		{name: "spaces and blanks", in: " a:1 , ,b:2,", want: []string{"a:1", "b:2"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CSV(tt.in))
		})
	}
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_INT", "42")
	t.Setenv("STOREFRONT_TEST_BAD_INT", "x")
	t.Setenv("STOREFRONT_TEST_DUR", "90s")
	t.Setenv("STOREFRONT_TEST_BAD_DUR", "-1s")

	assert.Equal(t, 42, EnvIntDefault("STOREFRONT_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("STOREFRONT_TEST_BAD_INT", 1))
	assert.Equal(t, 90*time.Second, EnvDurationDefault("STOREFRONT_TEST_DUR", time.Minute))
	assert.Equal(t, time.Minute, EnvDurationDefault("STOREFRONT_TEST_BAD_DUR", time.Minute))
	assert.Equal(t, "fallback", EnvDefault("STOREFRONT_TEST_MISSING", "fallback"))
}

func TestLoad_RequiredSettings(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")

	cfg := Load()
	require.Error(t, cfg.Validate())

	cfg.DatabaseURL = "postgres://localhost/shop"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 10*time.Minute, cfg.ResetTokenTTL)
}
