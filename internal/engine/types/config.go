package types

import (
	"time"

	"github.com/nyantunes/nyantunes/internal/config"
)

// Size constants
const (
	KB = 1024
	MB = 1024 * KB
)

// HTTP Client Tuning
const (
	DefaultMaxIdleConns          = 16
	DefaultIdleConnTimeout       = 90 * time.Second
	DefaultTLSHandshakeTimeout   = 10 * time.Second
	DefaultResponseHeaderTimeout = 15 * time.Second
	DialTimeout                  = 10 * time.Second
	KeepAliveDuration            = 30 * time.Second
)

// Transfer defaults
const (
	DefaultTransferTimeout  = 5 * time.Minute
	DefaultProgressInterval = 100 * time.Millisecond
	TransferBufferSize      = 32 * KB

	// MaxPreallocSize caps how much of an advertised Content-Length is
	// reserved up front. Larger bodies grow as bytes arrive.
	MaxPreallocSize = 64 * MB
)

// Channel buffer sizes
const (
	EventChannelBuffer = 100
)

// RuntimeConfig holds dynamic settings that can override defaults
type RuntimeConfig struct {
	UserAgent        string
	Timeout          time.Duration
	ProgressInterval time.Duration
	RequireAudio     bool
}

// ConvertRuntimeConfig copies user settings into the engine's runtime view.
func ConvertRuntimeConfig(rc *config.RuntimeConfig) *RuntimeConfig {
	if rc == nil {
		return &RuntimeConfig{}
	}
	return &RuntimeConfig{
		UserAgent:        rc.UserAgent,
		Timeout:          rc.Timeout,
		ProgressInterval: rc.ProgressInterval,
		RequireAudio:     rc.RequireAudio,
	}
}

// GetUserAgent returns the configured user agent or the default
func (r *RuntimeConfig) GetUserAgent() string {
	if r == nil || r.UserAgent == "" {
		return "nyantunes/1.0 (+https://github.com/nyantunes/nyantunes)"
	}
	return r.UserAgent
}

// GetTimeout returns configured value or default
func (r *RuntimeConfig) GetTimeout() time.Duration {
	if r == nil || r.Timeout <= 0 {
		return DefaultTransferTimeout
	}
	return r.Timeout
}

// GetProgressInterval returns configured value or default.
func (r *RuntimeConfig) GetProgressInterval() time.Duration {
	if r == nil || r.ProgressInterval <= 0 {
		return DefaultProgressInterval
	}
	return r.ProgressInterval
}

func (r *RuntimeConfig) GetRequireAudio() bool {
	if r == nil {
		return false
	}
	return r.RequireAudio
}
