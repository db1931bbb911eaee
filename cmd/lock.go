package cmd

import (
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/nyantunes/nyantunes/internal/config"
)

var instanceLock *flock.Flock

// AcquireLock takes the single-server lock. It reports false when another
// process already holds it.
func AcquireLock() (bool, error) {
	lock := flock.New(filepath.Join(config.GetRuntimeDir(), "nyantunes.lock"))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		return false, err
	}
	instanceLock = lock
	return true, nil
}

// ReleaseLock drops the lock taken by AcquireLock.
func ReleaseLock() error {
	if instanceLock == nil {
		return nil
	}
	err := instanceLock.Unlock()
	instanceLock = nil
	return err
}
