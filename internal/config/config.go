package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mmuslimabdulj/goat-canvas/internal/domain"
	"golang.org/x/time/rate"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port string

	// Security
	AllowedOrigins []string

	// Rate Limiting
	RateLimitWS        rate.Limit
	RateLimitWSBurst   int
	RateLimitHTTP      rate.Limit
	RateLimitHTTPBurst int

	// Cursor coalescing
	CursorRate  rate.Limit
	CursorBurst int

	// Logging
	LogLevel string

	// WebSocket
	MaxMessageSize int64
	SendQueueSize  int

	// LAN discovery
	MDNSEnabled  bool
	MDNSInstance string
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:             "3001",
		AllowedOrigins:   []string{"*"},
		RateLimitWS:        domain.DefaultRateLimitWS,
		RateLimitWSBurst:   domain.DefaultRateLimitWSBurst,
		RateLimitHTTP:      domain.DefaultRateLimitHTTP,
		RateLimitHTTPBurst: domain.DefaultRateLimitHTTPBurst,
		CursorRate:         domain.DefaultCursorRate,
		CursorBurst:        domain.DefaultCursorBurst,
		LogLevel:           "info", // Options: debug, info, silent
		MaxMessageSize:     domain.MaxMessageSize,
		SendQueueSize:      domain.SendQueueSize,
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	// Server
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	// Security
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	// Rate Limiting
	if val, ok := positiveInt("RATE_LIMIT_WS"); ok {
		cfg.RateLimitWS = rate.Limit(val)
	}
	if val, ok := positiveInt("RATE_LIMIT_WS_BURST"); ok {
		cfg.RateLimitWSBurst = val
	}

	if val, ok := positiveInt("RATE_LIMIT_HTTP"); ok {
		cfg.RateLimitHTTP = rate.Limit(val)
	}
	if val, ok := positiveInt("RATE_LIMIT_HTTP_BURST"); ok {
		cfg.RateLimitHTTPBurst = val
	}

	if val, ok := positiveInt("CURSOR_RATE_HZ"); ok {
		cfg.CursorRate = rate.Limit(val)
	}
	if val, ok := positiveInt("CURSOR_BURST"); ok {
		cfg.CursorBurst = val
	}

	// Logging
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	// WebSocket
	if val, ok := positiveInt("MAX_MESSAGE_SIZE"); ok {
		cfg.MaxMessageSize = int64(val)
	}
	if val, ok := positiveInt("SEND_QUEUE_SIZE"); ok {
		cfg.SendQueueSize = val
	}

	// LAN discovery
	if enabled := os.Getenv("MDNS_ENABLED"); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			cfg.MDNSEnabled = val
		}
	}
	if instance := os.Getenv("MDNS_INSTANCE"); instance != "" {
		cfg.MDNSInstance = instance
	}

	return cfg
}

// Silent reports whether logging is switched off
func (c *Config) Silent() bool {
	return c.LogLevel == "silent" || c.LogLevel == "off"
}

// Debug reports whether per-event logging is on
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// positiveInt reads an integer variable, ignoring unset, malformed and non-positive values
func positiveInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return 0, false
	}
	return val, true
}

// parseOrigins parses comma-separated origins
func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
