// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads the daemon's configuration via layered Koanf v2
// sources: struct defaults, an optional YAML file, then environment
// variables, in that order of increasing priority.
package config

import "time"

// Config holds all configuration for the broadcast daemon.
type Config struct {
	Station  StationConfig  `koanf:"station"`
	Icecast  IcecastConfig  `koanf:"icecast"`
	Schedule ScheduleConfig `koanf:"schedule"`
	History  HistoryConfig  `koanf:"history"`
	Messages MessagesConfig `koanf:"messages"`
	Command  CommandConfig  `koanf:"command"`
	Events   EventsConfig   `koanf:"events"`
	Badger   BadgerConfig   `koanf:"badger"`
	Server   ServerConfig   `koanf:"server"`
	Watchdog WatchdogConfig `koanf:"watchdog"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// StationConfig describes where station assets live on disk.
//
// Environment variables:
//   - WVOID_MUSIC_DIRS: comma-separated list of music library directories
//   - WVOID_SEGMENTS_DIR: directory of station ID / bumper / dedication segments
//   - WVOID_PODCASTS_DIR: directory of podcast episodes
//   - WVOID_ARCHIVE_MUSIC_DIR: optional overflow music directory, searched last
type StationConfig struct {
	MusicDirs       []string `koanf:"music_dirs"`
	SegmentsDir     string   `koanf:"segments_dir"`
	PodcastsDir     string   `koanf:"podcasts_dir"`
	ArchiveMusicDir string   `koanf:"archive_music_dir"`
}

// IcecastConfig holds the Icecast source-client connection settings.
//
// Environment variables: ICECAST_HOST, ICECAST_PORT, ICECAST_MOUNT,
// ICECAST_USER, ICECAST_PASS, ICECAST_STATUS_URL.
type IcecastConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	Mount      string `koanf:"mount"`
	User       string `koanf:"user"`
	Password   string `koanf:"password"`
	StatusURL  string `koanf:"status_url"`
	StationURL string `koanf:"station_url"`
}

// ScheduleConfig points at the weekly programming schedule.
//
// Environment variable: WVOID_SCHEDULE_PATH.
type ScheduleConfig struct {
	Path string `koanf:"path"`
}

// HistoryConfig configures the play history store.
type HistoryConfig struct {
	// Path is the DuckDB database file path (default ~/.wvoid/history.db).
	Path            string        `koanf:"path"`
	RecentLookback  time.Duration `koanf:"recent_lookback"`
	RelaxedLookback time.Duration `koanf:"relaxed_lookback"`
}

// MessagesConfig configures the listener message inbox and its rate limit.
type MessagesConfig struct {
	Path           string        `koanf:"path"`
	MaxLength      int           `koanf:"max_length"`
	RingSize       int           `koanf:"ring_size"`
	Cooldown       time.Duration `koanf:"cooldown"`
	DefaultListLen int           `koanf:"default_list_len"`
}

// CommandConfig configures the file-based command channel mailbox through
// which operators request a skip, a forced segment, or a forced podcast.
//
// Environment variable: WVOID_COMMAND_FILE.
type CommandConfig struct {
	File string `koanf:"command_file"`
}

// EventsConfig configures the embedded NATS/Watermill asset-transition bus.
type EventsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	StoreDir  string `koanf:"store_dir"`
	ClusterID string `koanf:"cluster_id"`
}

// BadgerConfig configures the durable KV store backing Director bookkeeping
// and the message rate-limit ledger.
type BadgerConfig struct {
	Dir string `koanf:"dir"`
}

// ServerConfig configures the now-playing/control HTTP API.
//
// Environment variable: WVOID_NOW_PLAYING_PORT.
type ServerConfig struct {
	Port             int           `koanf:"port"`
	Host             string        `koanf:"host"`
	NowPlayingPaths  []string      `koanf:"now_playing_paths"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
	ListenerCacheTTL time.Duration `koanf:"listener_cache_ttl"`
}

// WatchdogConfig configures the supervisor's health-check loop and alerting.
type WatchdogConfig struct {
	CheckInterval time.Duration `koanf:"check_interval"`
	MaxRetries    int           `koanf:"max_retries"`
	AlertCooldown time.Duration `koanf:"alert_cooldown"`
	AlertWebhook  string        `koanf:"alert_webhook"`
}

// LoggingConfig mirrors internal/logging.Config for Koanf unmarshaling.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
