// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/stellartours/reservasync/internal/validation"
)

// Config holds all agent configuration loaded from defaults, an optional
// YAML config file, and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Platform Connectivity:
//     - Platform: Booking platform REST gateway (base URL, timeouts, retries, rate limits)
//     - Realtime: WebSocket event stream endpoint
//
//  2. Local State:
//     - Cache: TTL-bounded read cache sizing
//     - Store: Collection pagination
//     - Janitor: Background sweep cadence and orphan thresholds
//     - Sync: Periodic full reconciliation cadence
//
//  3. API & Security:
//     - Server: Local HTTP API (port, host, timeouts)
//     - Security: JWT signing, session lifetime, rate limiting, CORS
//
//  4. Observability:
//     - Logging: Log levels and output formats
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines.
type Config struct {
	Platform PlatformConfig `koanf:"platform"`
	Realtime RealtimeConfig `koanf:"realtime"`
	Cache    CacheConfig    `koanf:"cache"`
	Store    StoreConfig    `koanf:"store"`
	Janitor  JanitorConfig  `koanf:"janitor"`
	Sync     SyncConfig     `koanf:"sync"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// PlatformConfig holds connection settings for the booking platform's REST
// gateway. The URL is the only required setting in the whole configuration.
//
// Environment Variables:
//   - PLATFORM_URL: Gateway base URL (e.g., https://plataforma.stellartours.example)
//   - PLATFORM_TIMEOUT: Per-request timeout (default: 30s)
//   - PLATFORM_RATE_LIMIT: Sustained requests per second (default: 10)
//   - PLATFORM_RATE_BURST: Burst allowance (default: 20)
//   - PLATFORM_MAX_RETRIES: Retry attempts for retryable failures (default: 3)
type PlatformConfig struct {
	URL          string        `koanf:"url" validate:"required,url"`
	Timeout      time.Duration `koanf:"timeout"`
	RateLimit    float64       `koanf:"rate_limit" validate:"gt=0"`
	RateBurst    int           `koanf:"rate_burst" validate:"min=1"`
	MaxRetries   int           `koanf:"max_retries" validate:"min=0,max=10"`
	RetryBackoff time.Duration `koanf:"retry_backoff" validate:"min=0"`
}

// RealtimeConfig holds the WebSocket event stream settings. When URL is
// empty it is derived from the platform URL at load time (ws scheme,
// /ws/eventos path), matching how the platform publishes its stream.
type RealtimeConfig struct {
	URL              string        `koanf:"url"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`
}

// CacheConfig sizes the TTL-bounded read cache.
type CacheConfig struct {
	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int           `koanf:"max_entries" validate:"min=1"`
}

// StoreConfig holds reservation collection settings.
type StoreConfig struct {
	PerPage int `koanf:"per_page" validate:"min=1,max=100"`
}

// JanitorConfig controls the background maintenance sweep. OrphanThreshold
// is the age past which an unresolved optimistic operation is considered
// abandoned and its patch dropped.
type JanitorConfig struct {
	Interval        time.Duration `koanf:"interval"`
	OrphanThreshold time.Duration `koanf:"orphan_threshold"`
}

// SyncConfig controls periodic full reconciliation against the platform.
type SyncConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// ServerConfig holds local HTTP API server settings.
type ServerConfig struct {
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Host    string        `koanf:"host" validate:"required"`
	Timeout time.Duration `koanf:"timeout"`
}

// SecurityConfig holds authentication and rate limiting settings.
//
// JWTSecret must be at least 32 characters when set. An empty secret
// disables authenticated endpoints on the local API.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// minJWTSecretLength is the minimum acceptable JWT secret length.
// 32 bytes gives 256 bits of entropy for HMAC-SHA256 signing.
const minJWTSecretLength = 32

// Validate checks the configuration for structural and semantic problems.
// Struct tags cover ranges and formats; the checks below cover constraints
// that span fields.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateDurations(); err != nil {
		return err
	}

	if c.Platform.RateBurst < int(c.Platform.RateLimit) {
		return fmt.Errorf("platform.rate_burst (%d) must be at least platform.rate_limit (%.0f)",
			c.Platform.RateBurst, c.Platform.RateLimit)
	}

	return c.validateRealtimeURL()
}

// validateDurations checks interval settings the struct tags cannot express.
// Validator compares time.Duration as raw nanoseconds, so readable bounds
// live here instead.
func (c *Config) validateDurations() error {
	checks := []struct {
		name string
		val  time.Duration
		min  time.Duration
	}{
		{"platform.timeout", c.Platform.Timeout, time.Second},
		{"realtime.handshake_timeout", c.Realtime.HandshakeTimeout, time.Second},
		{"cache.ttl", c.Cache.TTL, time.Second},
		{"janitor.interval", c.Janitor.Interval, time.Minute},
		{"janitor.orphan_threshold", c.Janitor.OrphanThreshold, time.Minute},
		{"sync.interval", c.Sync.Interval, time.Minute},
		{"server.timeout", c.Server.Timeout, time.Second},
		{"security.session_timeout", c.Security.SessionTimeout, time.Minute},
		{"security.rate_limit_window", c.Security.RateLimitWindow, time.Second},
	}
	for _, check := range checks {
		if check.val < check.min {
			return fmt.Errorf("%s must be at least %v, got %v", check.name, check.min, check.val)
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret == "" {
		return nil
	}
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("security.jwt_secret must be at least %d characters, got %d",
			minJWTSecretLength, len(c.Security.JWTSecret))
	}
	return nil
}

func (c *Config) validateRealtimeURL() error {
	if c.Realtime.URL == "" {
		return nil
	}
	if !strings.HasPrefix(c.Realtime.URL, "ws://") && !strings.HasPrefix(c.Realtime.URL, "wss://") {
		return fmt.Errorf("realtime.url must use ws:// or wss:// scheme, got %q", c.Realtime.URL)
	}
	return nil
}

// RealtimeURL returns the configured WebSocket endpoint, deriving one from
// the platform URL when none is set explicitly.
func (c *Config) RealtimeURL() string {
	if c.Realtime.URL != "" {
		return c.Realtime.URL
	}
	u := c.Platform.URL
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return strings.TrimRight(u, "/") + "/ws/eventos"
}

// ListenAddr returns the host:port the local API server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// AuthEnabled reports whether the local API requires JWT authentication.
func (c *Config) AuthEnabled() bool {
	return c.Security.JWTSecret != ""
}
