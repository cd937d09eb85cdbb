package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Session  SessionConfig
	Camera   CameraConfig
	Location LocationConfig
	Server   ServerConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Env      string
	LogLevel string
}

// APIConfig holds the backend connection settings
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig holds the local session storage settings
type SessionConfig struct {
	Path string
}

// CameraConfig holds the camera source settings.
// Source is a path to an image file or a directory of image files the
// kiosk camera cycles through.
type CameraConfig struct {
	Source string
}

// ServerConfig holds the development stub server settings.
type ServerConfig struct {
	Port      int
	JWTSecret string
}

// LocationConfig holds the geolocation provider settings.
// Mode is "static" (fixed coordinates below) or "none" (no provider on
// this host, every acquisition fails as unsupported).
type LocationConfig struct {
	Mode      string
	Latitude  float64
	Longitude float64
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	config := &Config{}

	config.App = AppConfig{
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	apiTimeout, err := time.ParseDuration(getEnv("API_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT: %w", err)
	}

	config.API = APIConfig{
		BaseURL: getEnv("API_BASE_URL", "http://localhost:8080/api"),
		Timeout: apiTimeout,
	}

	config.Session = SessionConfig{
		Path: getEnv("SESSION_PATH", defaultSessionPath()),
	}

	config.Camera = CameraConfig{
		Source: getEnv("CAMERA_SOURCE", ""),
	}

	lat, err := strconv.ParseFloat(getEnv("LOCATION_LATITUDE", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCATION_LATITUDE: %w", err)
	}
	lon, err := strconv.ParseFloat(getEnv("LOCATION_LONGITUDE", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCATION_LONGITUDE: %w", err)
	}
	config.Location = LocationConfig{
		Mode:      getEnv("LOCATION_MODE", "static"),
		Latitude:  lat,
		Longitude: lon,
	}

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	config.Server = ServerConfig{
		Port:      port,
		JWTSecret: getEnv("JWT_SECRET", "dev-only-secret"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("API_BASE_URL must be an http(s) URL")
	}
	if c.Location.Mode != "static" && c.Location.Mode != "none" {
		return fmt.Errorf("LOCATION_MODE must be \"static\" or \"none\"")
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return fmt.Errorf("LOCATION_LATITUDE must be between -90 and 90")
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return fmt.Errorf("LOCATION_LONGITUDE must be between -180 and 180")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	return nil
}

// APIBaseURL returns the backend API root without a trailing slash.
func (c *Config) APIBaseURL() string {
	return strings.TrimRight(c.API.BaseURL, "/")
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".attendance-session.json"
	}
	return home + string(os.PathSeparator) + ".attendance-session.json"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
