package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestCleanupLogs_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	ConfigureDebug(dir)
	defer ConfigureDebug("")

	for i := 1; i <= 4; i++ {
		name := fmt.Sprintf("debug-2026010%d-120000.log", i)
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	CleanupLogs(2)

	for _, name := range []string{"debug-20260103-120000.log", "debug-20260104-120000.log", "other.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to survive: %v", name, err)
		}
	}
	for _, name := range []string{"debug-20260101-120000.log", "debug-20260102-120000.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed", name)
		}
	}
}

func TestDebug_NoDirIsNoop(t *testing.T) {
	ConfigureDebug("")
	Debug("nothing happens %d", 1)
}
