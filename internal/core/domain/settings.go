package domain

import (
	"fmt"
	"net/url"
	"time"
)

const unknownDescription = "Unknown"

// Defaults for the settings below.
const (
	DefaultAPIBaseURL           = "http://localhost:8000"
	DefaultAPITimeout           = 30 * time.Second
	DefaultRequestsPerSecond    = 5
	DefaultReconnectInterval    = 3000 * time.Millisecond
	DefaultMaxReconnectAttempts = 5
	DefaultCacheTTL             = 5 * time.Minute
)

// APISettings holds documentation backend configuration.
type APISettings struct {
	// BaseURL is the backend root, e.g. http://localhost:8000.
	BaseURL string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// RequestsPerSecond is the client-side rate limit.
	RequestsPerSecond int
}

// StreamSettings holds progress stream configuration.
type StreamSettings struct {
	// Enabled selects streaming analysis over the blocking call by default.
	Enabled bool

	// ReconnectInterval is the wait before each reconnect attempt.
	ReconnectInterval time.Duration

	// MaxReconnectAttempts bounds reconnects after abnormal closes.
	MaxReconnectAttempts int
}

// CacheSettings holds document cache configuration.
type CacheSettings struct {
	// TTL is how long fetched document trees and version lists stay fresh.
	TTL time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	// API holds backend settings.
	API APISettings

	// Stream holds progress stream settings.
	Stream StreamSettings

	// Cache holds document cache settings.
	Cache CacheSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		API: APISettings{
			BaseURL:           DefaultAPIBaseURL,
			Timeout:           DefaultAPITimeout,
			RequestsPerSecond: DefaultRequestsPerSecond,
		},
		Stream: StreamSettings{
			Enabled:              false,
			ReconnectInterval:    DefaultReconnectInterval,
			MaxReconnectAttempts: DefaultMaxReconnectAttempts,
		},
		Cache: CacheSettings{
			TTL: DefaultCacheTTL,
		},
	}
}

// Validate checks the settings are usable.
func (s AppSettings) Validate() error {
	u, err := url.Parse(s.API.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: api base url: %v", ErrInvalidInput, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: api base url must be http or https, got %q", ErrInvalidInput, s.API.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: api base url has no host", ErrInvalidInput)
	}
	if s.API.Timeout <= 0 {
		return fmt.Errorf("%w: api timeout must be positive", ErrInvalidInput)
	}
	if s.API.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: requests per second must be positive", ErrInvalidInput)
	}
	if s.Stream.ReconnectInterval < 0 {
		return fmt.Errorf("%w: reconnect interval cannot be negative", ErrInvalidInput)
	}
	if s.Stream.MaxReconnectAttempts < 0 {
		return fmt.Errorf("%w: max reconnect attempts cannot be negative", ErrInvalidInput)
	}
	if s.Cache.TTL <= 0 {
		return fmt.Errorf("%w: cache ttl must be positive", ErrInvalidInput)
	}
	return nil
}
