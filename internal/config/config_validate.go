// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and well-formed.
func (c *Config) Validate() error {
	if err := c.validateStation(); err != nil {
		return err
	}
	if err := c.validateIcecast(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateMessages(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateWatchdog(); err != nil {
		return err
	}
	return c.validateLogging()
}

// validateStation validates the station asset directories.
func (c *Config) validateStation() error {
	if len(c.Station.MusicDirs) == 0 {
		return fmt.Errorf("WVOID_MUSIC_DIRS must name at least one music directory")
	}
	if c.Station.SegmentsDir == "" {
		return fmt.Errorf("WVOID_SEGMENTS_DIR is required")
	}
	return nil
}

// validateIcecast validates the Icecast source-client connection settings.
func (c *Config) validateIcecast() error {
	if c.Icecast.Host == "" {
		return fmt.Errorf("ICECAST_HOST is required")
	}
	if c.Icecast.Port < 1 || c.Icecast.Port > 65535 {
		return fmt.Errorf("ICECAST_PORT must be between 1 and 65535")
	}
	if c.Icecast.Mount == "" || !strings.HasPrefix(c.Icecast.Mount, "/") {
		return fmt.Errorf("ICECAST_MOUNT must be a non-empty path starting with /")
	}
	if c.Icecast.Password == "" {
		return fmt.Errorf("ICECAST_PASS is required")
	}
	if c.Icecast.StatusURL != "" {
		if err := validateHTTPURL(c.Icecast.StatusURL, "ICECAST_STATUS_URL"); err != nil {
			return err
		}
	}
	return nil
}

// validateSchedule validates the weekly schedule configuration.
func (c *Config) validateSchedule() error {
	if c.Schedule.Path == "" {
		return fmt.Errorf("WVOID_SCHEDULE_PATH is required")
	}
	return nil
}

// validateHistory validates the play history store configuration.
func (c *Config) validateHistory() error {
	if c.History.Path == "" {
		return fmt.Errorf("history.path is required")
	}
	if c.History.RecentLookback <= 0 {
		return fmt.Errorf("history.recent_lookback must be positive")
	}
	if c.History.RelaxedLookback <= 0 {
		return fmt.Errorf("history.relaxed_lookback must be positive")
	}
	if c.History.RelaxedLookback > c.History.RecentLookback {
		return fmt.Errorf("history.relaxed_lookback must not exceed history.recent_lookback")
	}
	return nil
}

// validateMessages validates the listener message inbox configuration.
func (c *Config) validateMessages() error {
	if c.Messages.MaxLength < 1 || c.Messages.MaxLength > 2000 {
		return fmt.Errorf("messages.max_length must be between 1 and 2000")
	}
	if c.Messages.RingSize < 1 {
		return fmt.Errorf("messages.ring_size must be positive")
	}
	if c.Messages.Cooldown < 0 {
		return fmt.Errorf("messages.cooldown must not be negative")
	}
	return nil
}

// validateEvents validates the embedded event bus configuration.
func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if c.Events.StoreDir == "" {
		return fmt.Errorf("events.store_dir is required when events.enabled=true")
	}
	if c.Events.ClusterID == "" {
		return fmt.Errorf("events.cluster_id is required when events.enabled=true")
	}
	return nil
}

// validateServer validates the now-playing/control HTTP API configuration.
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("WVOID_NOW_PLAYING_PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if c.Server.ListenerCacheTTL <= 0 {
		return fmt.Errorf("server.listener_cache_ttl must be positive")
	}
	return nil
}

// validateWatchdog validates the supervisor health-check and alerting settings.
func (c *Config) validateWatchdog() error {
	if c.Watchdog.CheckInterval <= 0 {
		return fmt.Errorf("watchdog.check_interval must be positive")
	}
	if c.Watchdog.MaxRetries < 1 {
		return fmt.Errorf("watchdog.max_retries must be at least 1")
	}
	if c.Watchdog.AlertCooldown < 0 {
		return fmt.Errorf("watchdog.alert_cooldown must not be negative")
	}
	if c.Watchdog.AlertWebhook != "" {
		if err := validateHTTPURL(c.Watchdog.AlertWebhook, "watchdog.alert_webhook"); err != nil {
			return err
		}
	}
	return nil
}

// validLogLevels enumerates the zerolog levels this daemon accepts.
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"fatal": true,
	"panic": true,
}

// validLogFormats enumerates the accepted logging output formats.
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates the logging configuration.
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic")
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateHTTPURL checks that value parses as an absolute http(s) URL.
func validateHTTPURL(value, name string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an absolute http:// or https:// URL", name)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
