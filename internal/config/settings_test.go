package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("APPDATA", dir)
}

func TestLoadSettings_MissingFileReturnsDefaults(t *testing.T) {
	isolate(t)

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestSaveAndLoadSettings(t *testing.T) {
	isolate(t)

	s := DefaultSettings()
	s.Network.UserAgent = "TestAgent/1.0"
	s.Network.Timeout = 42 * time.Second
	s.Library.RequireAudio = true
	require.NoError(t, SaveSettings(s))

	_, err := os.Stat(GetSettingsPath() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	loaded, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestLoadSettings_PartialFileKeepsDefaults(t *testing.T) {
	isolate(t)
	require.NoError(t, os.MkdirAll(GetAppDir(), 0o755))
	require.NoError(t, os.WriteFile(GetSettingsPath(), []byte(`{"library":{"require_audio":true}}`), 0o644))

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.True(t, s.Library.RequireAudio)
	assert.Equal(t, DefaultSettings().Network, s.Network)
	assert.Equal(t, 5, s.General.LogRetentionCount)
}

func TestLoadSettings_InvalidJSON(t *testing.T) {
	isolate(t)
	require.NoError(t, os.MkdirAll(GetAppDir(), 0o755))
	require.NoError(t, os.WriteFile(GetSettingsPath(), []byte(`{not json`), 0o644))

	_, err := LoadSettings()
	assert.Error(t, err)
}

func TestSettingsPathFallbacks(t *testing.T) {
	isolate(t)

	s := DefaultSettings()
	assert.Equal(t, GetLibraryPath(), s.LibraryPath())
	assert.Equal(t, os.TempDir(), s.ExportDir())

	s.Library.DatabasePath = "/tmp/custom.db"
	s.General.ExportDir = "/tmp/exports"
	assert.Equal(t, "/tmp/custom.db", s.LibraryPath())
	assert.Equal(t, "/tmp/exports", s.ExportDir())
}

func TestSettingsMetadataCoversCategories(t *testing.T) {
	meta := GetSettingsMetadata()
	for _, cat := range CategoryOrder() {
		assert.NotEmpty(t, meta[cat], "category %s has no settings", cat)
	}
	assert.Len(t, meta, len(CategoryOrder()))
}

func TestToRuntimeConfig(t *testing.T) {
	s := DefaultSettings()
	s.Network.UserAgent = "ua"
	s.Library.RequireAudio = true

	rc := s.ToRuntimeConfig()
	assert.Equal(t, "ua", rc.UserAgent)
	assert.Equal(t, s.Network.Timeout, rc.Timeout)
	assert.Equal(t, s.Network.ProgressInterval, rc.ProgressInterval)
	assert.True(t, rc.RequireAudio)
}
