package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "http://localhost:8080/api", cfg.API.BaseURL)
	assert.Equal(t, "static", cfg.Location.Mode)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.NotEmpty(t, cfg.Session.Path)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://hr.example.com/api/")
	t.Setenv("API_TIMEOUT", "10s")
	t.Setenv("LOCATION_MODE", "none")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://hr.example.com/api", cfg.APIBaseURL())
	assert.Equal(t, "10s", cfg.API.Timeout.String())
	assert.Equal(t, "none", cfg.Location.Mode)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad timeout", "API_TIMEOUT", "soon"},
		{"bad base url", "API_BASE_URL", "ftp://example.com"},
		{"bad location mode", "LOCATION_MODE", "gps"},
		{"latitude out of range", "LOCATION_LATITUDE", "123"},
		{"longitude out of range", "LOCATION_LONGITUDE", "-190"},
		{"bad port", "SERVER_PORT", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
