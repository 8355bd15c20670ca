package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PeerConfig captures the tunable settings for the agent and panel binaries.
type PeerConfig struct {
	Hub       HubConfig       `yaml:"hub"`
	Page      PageConfig      `yaml:"page"`
	Selection SelectionConfig `yaml:"selection"`
	LogLevel  string          `yaml:"log_level"`
}

// HubConfig says how a peer reaches and authenticates against the hub.
type HubConfig struct {
	// URL is the hub's base HTTP address (e.g. http://localhost:3100).
	URL string `yaml:"url"`
	// Secret authenticates the token request. Must match the hub's secret.
	Secret string `yaml:"secret"`
	// TabID identifies the browser tab an agent serves.
	TabID string `yaml:"tab_id"`
	// RequestTimeout bounds ordinary requests (e.g. "15s").
	RequestTimeout string `yaml:"request_timeout"`
}

// PageConfig configures how an agent reads its page.
type PageConfig struct {
	// DebuggerURL attaches the agent to a running Chrome (e.g. ws://localhost:9222).
	// When empty the agent serves static HTML from SourceFile instead.
	DebuggerURL string `yaml:"debugger_url"`
	// SourceFile is an HTML file served when no browser is attached.
	SourceFile string `yaml:"source_file"`
	// NavigationTimeout bounds page loads (e.g. "15s").
	NavigationTimeout string `yaml:"navigation_timeout"`
}

// SelectionConfig tunes the area-selection overlay.
type SelectionConfig struct {
	// MinSize is the smallest committable selection edge, in CSS pixels.
	MinSize int `yaml:"min_size"`
}

// DefaultPeerConfig provides reasonable defaults for local development.
func DefaultPeerConfig() PeerConfig {
	return PeerConfig{
		Hub: HubConfig{
			URL:            "http://localhost:3100",
			RequestTimeout: "15s",
		},
		Page: PageConfig{
			NavigationTimeout: "15s",
		},
		Selection: SelectionConfig{
			MinSize: 5,
		},
		LogLevel: "info",
	}
}

// LoadPeer reads YAML config from disk and overlays defaults. An empty path
// returns the defaults untouched.
func LoadPeer(path string) (PeerConfig, error) {
	cfg := DefaultPeerConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := os.Getenv("WEBINSIGHT_HUB_URL"); v != "" {
		cfg.Hub.URL = v
	}
	if v := os.Getenv("WEBINSIGHT_HUB_SECRET"); v != "" {
		cfg.Hub.Secret = v
	}
	if v := os.Getenv("WEBINSIGHT_TAB_ID"); v != "" {
		cfg.Hub.TabID = v
	}

	return cfg, cfg.Validate()
}

// Validate ensures required fields exist so peers fail at startup rather
// than on first use.
func (c *PeerConfig) Validate() error {
	if c.Hub.URL == "" {
		return errors.New("hub.url is required")
	}
	if c.Hub.Secret == "" {
		return errors.New("hub.secret is required")
	}
	if c.Selection.MinSize < 0 {
		return errors.New("selection.min_size must not be negative")
	}
	return nil
}

// GetRequestTimeout returns the parsed request timeout with a sane default.
func (h HubConfig) GetRequestTimeout() time.Duration {
	return parseDuration(h.RequestTimeout, 15*time.Second)
}

// GetNavigationTimeout returns the parsed navigation timeout with a sane default.
func (p PageConfig) GetNavigationTimeout() time.Duration {
	return parseDuration(p.NavigationTimeout, 15*time.Second)
}

// EffectiveMinSize returns the configured selection threshold with a sane default.
func (s SelectionConfig) EffectiveMinSize() int {
	if s.MinSize <= 0 {
		return 5
	}
	return s.MinSize
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
