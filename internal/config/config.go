// Package config loads configuration for the hub binary.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds hub configuration.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string
	// DatabasePath is the SQLite database file.
	DatabasePath string
	// ReportsDir is where rendered PDF reports are written.
	ReportsDir string
	// MasterSecret roots all derived key material.
	MasterSecret string
	// GeminiAPIKey enables the hosted key-points model when set.
	GeminiAPIKey string
	// GeminiModel selects the hosted model.
	GeminiModel    string
	Debug          bool
	AllowedOrigins []string
}

// Overrides optionally overrides values from environment variables.
//
// A nil pointer means "use the environment/default value".
type Overrides struct {
	Addr         *string
	DatabasePath *string
	ReportsDir   *string
	MasterSecret *string
	Debug        *bool
}

// Load loads hub configuration from environment variables and applies any
// explicit overrides.
func Load(overrides Overrides) (*Config, error) {
	port := 3100
	if portStr := os.Getenv("PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	addr := fmt.Sprintf(":%d", port)
	if overrides.Addr != nil {
		addr = *overrides.Addr
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./webinsight.db"
	}
	if overrides.DatabasePath != nil {
		dbPath = *overrides.DatabasePath
	}

	reportsDir := os.Getenv("REPORTS_DIR")
	if reportsDir == "" {
		reportsDir = "./reports"
	}
	if overrides.ReportsDir != nil {
		reportsDir = *overrides.ReportsDir
	}

	masterSecret := os.Getenv("WEBINSIGHT_MASTER_SECRET")
	if overrides.MasterSecret != nil {
		masterSecret = *overrides.MasterSecret
	}
	if masterSecret == "" {
		return nil, fmt.Errorf("WEBINSIGHT_MASTER_SECRET environment variable is required")
	}

	debug := false
	if debugStr := os.Getenv("DEBUG"); debugStr == "true" || debugStr == "1" {
		debug = true
	}
	if overrides.Debug != nil {
		debug = *overrides.Debug
	}

	origins := []string{"*"}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		origins = nil
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Config{
		Addr:           addr,
		DatabasePath:   dbPath,
		ReportsDir:     reportsDir,
		MasterSecret:   masterSecret,
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		Debug:          debug,
		AllowedOrigins: origins,
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
