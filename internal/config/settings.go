package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Settings holds all user-configurable application settings organized by category.
type Settings struct {
	General GeneralSettings `json:"general"`
	Network NetworkSettings `json:"network"`
	Library LibrarySettings `json:"library"`
}

// GeneralSettings contains application behavior settings.
type GeneralSettings struct {
	ExportDir         string `json:"export_dir"`
	LogRetentionCount int    `json:"log_retention_count"`
}

// NetworkSettings contains transfer parameters.
type NetworkSettings struct {
	UserAgent              string        `json:"user_agent"`
	Timeout                time.Duration `json:"timeout"`
	ProgressInterval       time.Duration `json:"progress_interval"`
	MaxConcurrentDownloads int           `json:"max_concurrent_downloads"`
}

// LibrarySettings controls the local store of downloaded tracks.
type LibrarySettings struct {
	DatabasePath string `json:"database_path"`
	RequireAudio bool   `json:"require_audio"`
}

// SettingMeta provides metadata for a single setting (for listing).
type SettingMeta struct {
	Key         string // JSON key name
	Label       string // Human-readable label
	Description string // Help text
	Type        string // "string", "int", "bool", "duration"
}

// GetSettingsMetadata returns metadata for all settings organized by category.
func GetSettingsMetadata() map[string][]SettingMeta {
	return map[string][]SettingMeta{
		"General": {
			{Key: "export_dir", Label: "Export Dir", Description: "Directory exported tracks are written to. Leave empty to use the system temp dir.", Type: "string"},
			{Key: "log_retention_count", Label: "Log Retention Count", Description: "Number of recent log files to keep.", Type: "int"},
		},
		"Network": {
			{Key: "user_agent", Label: "User Agent", Description: "Custom User-Agent string for HTTP requests. Leave empty for default.", Type: "string"},
			{Key: "timeout", Label: "Timeout", Description: "Give up on a transfer after this long (e.g., 5m).", Type: "duration"},
			{Key: "progress_interval", Label: "Progress Interval", Description: "Minimum time between progress updates (e.g., 100ms).", Type: "duration"},
			{Key: "max_concurrent_downloads", Label: "Max Concurrent Downloads", Description: "Maximum number of tracks fetched at once by a batch get (1-16).", Type: "int"},
		},
		"Library": {
			{Key: "database_path", Label: "Database Path", Description: "Location of the library database. Leave empty for the default state dir.", Type: "string"},
			{Key: "require_audio", Label: "Require Audio", Description: "Reject downloads whose content is not recognised as audio.", Type: "bool"},
		},
	}
}

// CategoryOrder returns the order of categories for listing.
func CategoryOrder() []string {
	return []string{"General", "Network", "Library"}
}

// DefaultSettings returns a new Settings instance with sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		General: GeneralSettings{
			ExportDir:         "",
			LogRetentionCount: 5,
		},
		Network: NetworkSettings{
			UserAgent:              "", // Empty means use default UA
			Timeout:                5 * time.Minute,
			ProgressInterval:       100 * time.Millisecond,
			MaxConcurrentDownloads: 3,
		},
		Library: LibrarySettings{
			DatabasePath: "",
			RequireAudio: false,
		},
	}
}

// GetSettingsPath returns the path to the settings JSON file.
func GetSettingsPath() string {
	return filepath.Join(GetAppDir(), "settings.json")
}

// LoadSettings loads settings from disk. Returns defaults if file doesn't exist.
func LoadSettings() (*Settings, error) {
	path := GetSettingsPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings() // Start with defaults to fill any missing fields
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// SaveSettings saves settings to disk atomically.
func SaveSettings(s *Settings) error {
	path := GetSettingsPath()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}

// LibraryPath returns the configured database path or the default one.
func (s *Settings) LibraryPath() string {
	if s == nil || s.Library.DatabasePath == "" {
		return GetLibraryPath()
	}
	return s.Library.DatabasePath
}

// ExportDir returns the configured export dir or the system temp dir.
func (s *Settings) ExportDir() string {
	if s == nil || s.General.ExportDir == "" {
		return os.TempDir()
	}
	return s.General.ExportDir
}

// RuntimeConfig is the flattened view of Settings passed to the engine.
type RuntimeConfig struct {
	UserAgent        string
	Timeout          time.Duration
	ProgressInterval time.Duration
	RequireAudio     bool
}

// ToRuntimeConfig creates a RuntimeConfig from user Settings
func (s *Settings) ToRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		UserAgent:        s.Network.UserAgent,
		Timeout:          s.Network.Timeout,
		ProgressInterval: s.Network.ProgressInterval,
		RequireAudio:     s.Library.RequireAudio,
	}
}
