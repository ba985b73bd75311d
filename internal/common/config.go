package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Storage  StorageConfig
	Render   RenderConfig
	Preview  PreviewConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// StorageConfig holds object-store configuration
type StorageConfig struct {
	Bucket          string
	Region          string
	DownloadTimeout time.Duration
	UploadTimeout   time.Duration
}

// RenderConfig holds rendering-strategy configuration
type RenderConfig struct {
	// Pdftoppm is the external converter binary name or absolute path.
	Pdftoppm string
	// ProbeTimeout bounds the capability version probe.
	ProbeTimeout time.Duration
	// ConvertTimeout is the hard wall-clock cap for one external conversion.
	ConvertTimeout time.Duration
	// Density is the rasterization DPI for full-resolution renders.
	Density int
	// ThumbnailDensity is the DPI used for per-page thumbnails.
	ThumbnailDensity int
	// WhiteThreshold is the minimum fraction of sampled points that must be
	// non-white before a rendered page is trusted. This is a heuristic for
	// catching a silently broken drawing surface, approximate by nature.
	WhiteThreshold float64
}

// PreviewConfig holds derived-image configuration
type PreviewConfig struct {
	JPEGQuality   int
	MinRasterSize int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Storage: StorageConfig{
			Bucket:          getEnv("STORAGE_BUCKET", ""),
			Region:          getEnv("STORAGE_REGION", "us-east-1"),
			DownloadTimeout: getEnvAsDuration("STORAGE_DOWNLOAD_TIMEOUT", 30*time.Second),
			UploadTimeout:   getEnvAsDuration("STORAGE_UPLOAD_TIMEOUT", 60*time.Second),
		},
		Render: RenderConfig{
			Pdftoppm:         getEnv("PDFTOPPM_BIN", "pdftoppm"),
			ProbeTimeout:     getEnvAsDuration("PDFTOPPM_PROBE_TIMEOUT", 3*time.Second),
			ConvertTimeout:   getEnvAsDuration("PDFTOPPM_CONVERT_TIMEOUT", 30*time.Second),
			Density:          getEnvAsInt("PREVIEW_DENSITY", 150),
			ThumbnailDensity: getEnvAsInt("PREVIEW_THUMBNAIL_DENSITY", 72),
			WhiteThreshold:   getEnvAsFloat64("PREVIEW_WHITE_THRESHOLD", 0.05),
		},
		Preview: PreviewConfig{
			JPEGQuality:   getEnvAsInt("PREVIEW_JPEG_QUALITY", 85),
			MinRasterSize: getEnvAsInt("PREVIEW_MIN_RASTER_BYTES", 1024),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", nil)
	}
	if c.Storage.Bucket == "" {
		return NewAppError("CONFIG_ERROR", "STORAGE_BUCKET is required", nil)
	}
	if c.Render.Density <= 0 {
		return NewAppError("CONFIG_ERROR", "PREVIEW_DENSITY must be positive", nil)
	}
	if c.Render.WhiteThreshold < 0 || c.Render.WhiteThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "PREVIEW_WHITE_THRESHOLD must be in [0,1]", nil)
	}
	return nil
}
