// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where a config file is searched for,
// in order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/wvoid/config.yaml",
	"/etc/wvoid/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "WVOID_CONFIG_PATH"

func defaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Station: StationConfig{
			MusicDirs:   nil,
			SegmentsDir: "",
			PodcastsDir: "",
		},
		Icecast: IcecastConfig{
			Host:       "localhost",
			Port:       8000,
			Mount:      "/stream",
			StatusURL:  "http://localhost:8000/status-json.xsl",
			StationURL: "WVOID-FM",
		},
		Schedule: ScheduleConfig{
			Path: home + "/.wvoid/schedule.yaml",
		},
		History: HistoryConfig{
			Path:            home + "/.wvoid/history.db",
			RecentLookback:  24 * time.Hour,
			RelaxedLookback: 6 * time.Hour,
		},
		Messages: MessagesConfig{
			Path:           home + "/.wvoid/messages.json",
			MaxLength:      280,
			RingSize:       100,
			Cooldown:       5 * time.Minute,
			DefaultListLen: 20,
		},
		Command: CommandConfig{
			File: home + "/.wvoid/command",
		},
		Events: EventsConfig{
			Enabled:   true,
			StoreDir:  home + "/.wvoid/nats",
			ClusterID: "wvoid-fm",
		},
		Badger: BadgerConfig{
			Dir: home + "/.wvoid/state",
		},
		Server: ServerConfig{
			Port:             8001,
			Host:             "0.0.0.0",
			ShutdownTimeout:  10 * time.Second,
			ListenerCacheTTL: 15 * time.Second,
		},
		Watchdog: WatchdogConfig{
			CheckInterval: 30 * time.Second,
			MaxRetries:    3,
			AlertCooldown: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load reads configuration via the layered Koanf sources: struct defaults,
// an optional YAML file, then environment variables (highest priority).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"station.music_dirs",
	"server.now_playing_paths",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps the spec's WVOID_*/ICECAST_* environment variable
// names onto koanf's dotted config paths. Env vars outside this mapping are
// ignored rather than silently polluting the config tree.
func envTransformFunc(key string) string {
	lower := strings.ToLower(key)

	mappings := map[string]string{
		// Station asset directories.
		"wvoid_music_dirs":        "station.music_dirs",
		"wvoid_segments_dir":      "station.segments_dir",
		"wvoid_podcasts_dir":      "station.podcasts_dir",
		"wvoid_archive_music_dir": "station.archive_music_dir",

		// Icecast source-client connection (unprefixed per the original tooling).
		"icecast_host":       "icecast.host",
		"icecast_port":       "icecast.port",
		"icecast_mount":      "icecast.mount",
		"icecast_user":       "icecast.user",
		"icecast_pass":       "icecast.password",
		"icecast_status_url": "icecast.status_url",

		// Schedule.
		"wvoid_schedule_path": "schedule.path",

		// Command channel / now-playing publication.
		"wvoid_command_file":      "command.command_file",
		"wvoid_now_playing_paths": "server.now_playing_paths",
		"wvoid_now_playing_port":  "server.port",

		// Logging.
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := mappings[lower]; ok {
		return mapped
	}
	return ""
}
