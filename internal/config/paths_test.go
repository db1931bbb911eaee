package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestGetAppDir(t *testing.T) {
	// Set XDG_CONFIG_HOME for Linux tests
	if runtime.GOOS == "linux" {
		tmpDir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", tmpDir)
	}

	dir := GetAppDir()
	if dir == "" {
		t.Error("GetAppDir returned empty string")
	}
	if !strings.Contains(strings.ToLower(dir), "nyantunes") {
		t.Errorf("Expected path to contain 'nyantunes', got: %s", dir)
	}
}

func TestGetStateDir(t *testing.T) {
	if runtime.GOOS == "linux" {
		tmpDir := t.TempDir()
		t.Setenv("XDG_STATE_HOME", tmpDir)

		dir := GetStateDir()
		expected := filepath.Join(tmpDir, "nyantunes")
		if dir != expected {
			t.Errorf("GetStateDir mismatch. Got %s, want %s", dir, expected)
		}
	} else {
		if GetStateDir() != GetAppDir() {
			t.Error("GetStateDir should equal GetAppDir on non-Linux")
		}
	}
}

func TestGetRuntimeDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG runtime dir is linux only")
	}
	tmpDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", tmpDir)

	if got, want := GetRuntimeDir(), filepath.Join(tmpDir, "nyantunes"); got != want {
		t.Errorf("GetRuntimeDir mismatch. Got %s, want %s", got, want)
	}

	// Fallback to state dir
	t.Setenv("XDG_RUNTIME_DIR", "")
	stateTmp := t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateTmp)

	if got, want := GetRuntimeDir(), filepath.Join(stateTmp, "nyantunes"); got != want {
		t.Errorf("GetRuntimeDir fallback mismatch. Got %s, want %s", got, want)
	}
}

func TestGetLogsDirAndLibraryPath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	if dir := GetLogsDir(); !strings.HasPrefix(dir, GetStateDir()) || filepath.Base(dir) != "logs" {
		t.Errorf("unexpected logs dir: %s", dir)
	}
	if p := GetLibraryPath(); filepath.Dir(p) != GetStateDir() || filepath.Base(p) != "library.db" {
		t.Errorf("unexpected library path: %s", p)
	}
}

func TestEnsureDirs(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmpDir, "state"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(tmpDir, "run"))
	t.Setenv("HOME", tmpDir)
	t.Setenv("APPDATA", tmpDir)

	if err := EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs failed: %v", err)
	}

	for _, dir := range []string{GetAppDir(), GetStateDir(), GetLogsDir(), GetRuntimeDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("directory %s not created: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}
