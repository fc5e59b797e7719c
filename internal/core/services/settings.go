package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docflow-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// EnvAPIBaseURL overrides api.base_url when set.
const EnvAPIBaseURL = "DOCFLOW_API_BASE_URL"

// Config keys for settings storage.
const (
	keyAPIBaseURL           = "api.base_url"
	keyAPITimeout           = "api.timeout_seconds"
	keyAPIRequestsPerSecond = "api.requests_per_second"
	keyStreamEnabled        = "stream.enabled"
	keyStreamInterval       = "stream.reconnect_interval_ms"
	keyStreamMaxAttempts    = "stream.max_reconnect_attempts"
	keyCacheTTL             = "cache.ttl_seconds"
)

// settingKeys lists the settable keys in display order.
var settingKeys = []string{
	keyAPIBaseURL,
	keyAPITimeout,
	keyAPIRequestsPerSecond,
	keyStreamEnabled,
	keyStreamInterval,
	keyStreamMaxAttempts,
	keyCacheTTL,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current application settings.
// Unset or unusable values fall back to their defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		API: domain.APISettings{
			BaseURL:           s.getString(keyAPIBaseURL, defaults.API.BaseURL),
			Timeout:           s.getDuration(keyAPITimeout, time.Second, defaults.API.Timeout),
			RequestsPerSecond: s.getInt(keyAPIRequestsPerSecond, defaults.API.RequestsPerSecond),
		},
		Stream: domain.StreamSettings{
			Enabled:              s.getBool(keyStreamEnabled, defaults.Stream.Enabled),
			ReconnectInterval:    s.getDuration(keyStreamInterval, time.Millisecond, defaults.Stream.ReconnectInterval),
			MaxReconnectAttempts: s.getCount(keyStreamMaxAttempts, defaults.Stream.MaxReconnectAttempts),
		},
		Cache: domain.CacheSettings{
			TTL: s.getDuration(keyCacheTTL, time.Second, defaults.Cache.TTL),
		},
	}

	if base, ok := s.lookupEnv(EnvAPIBaseURL); ok && base != "" {
		settings.API.BaseURL = base
	}

	return settings, nil
}

// Save validates and persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyAPIBaseURL, settings.API.BaseURL},
		{keyAPITimeout, int(settings.API.Timeout / time.Second)},
		{keyAPIRequestsPerSecond, settings.API.RequestsPerSecond},
		{keyStreamEnabled, settings.Stream.Enabled},
		{keyStreamInterval, int(settings.Stream.ReconnectInterval / time.Millisecond)},
		{keyStreamMaxAttempts, settings.Stream.MaxReconnectAttempts},
		{keyCacheTTL, int(settings.Cache.TTL / time.Second)},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set updates one setting from its string form.
// An empty value removes the key so the default applies again.
func (s *SettingsService) Set(key, value string) error {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	if !isSettingKey(key) {
		return fmt.Errorf("%w: unknown setting %q (valid: %s)", domain.ErrInvalidInput, key, strings.Join(settingKeys, ", "))
	}
	if value == "" {
		if err := s.configStore.Unset(key); err != nil {
			return fmt.Errorf("unset %s: %w", key, err)
		}
		return nil
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	var stored any
	switch key {
	case keyAPIBaseURL:
		settings.API.BaseURL = value
		stored = value
	case keyStreamEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		settings.Stream.Enabled = b
		stored = b
	default:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be a whole number", domain.ErrInvalidInput, key)
		}
		applyInt(settings, key, n)
		stored = n
	}

	if err := settings.Validate(); err != nil {
		return err
	}
	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func applyInt(settings *domain.AppSettings, key string, n int) {
	switch key {
	case keyAPITimeout:
		settings.API.Timeout = time.Duration(n) * time.Second
	case keyAPIRequestsPerSecond:
		settings.API.RequestsPerSecond = n
	case keyStreamInterval:
		settings.Stream.ReconnectInterval = time.Duration(n) * time.Millisecond
	case keyStreamMaxAttempts:
		settings.Stream.MaxReconnectAttempts = n
	case keyCacheTTL:
		settings.Cache.TTL = time.Duration(n) * time.Second
	}
}

// Keys lists the settable config keys.
func (s *SettingsService) Keys() []string {
	return append([]string(nil), settingKeys...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Path returns where settings are stored.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

func isSettingKey(key string) bool {
	for _, k := range settingKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

// getCount is getInt for values where zero is meaningful.
func (s *SettingsService) getCount(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	val := s.configStore.GetInt(key)
	if val < 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getDuration(key string, unit, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * unit
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}
