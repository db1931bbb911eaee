package types

import (
	"errors"
	"fmt"
)

// Manager boundary errors. ErrAlreadyDownloading and ErrNotDownloading are
// caller misuse and recoverable by re-checking state.
var (
	ErrAlreadyDownloading = errors.New("track is already downloading")
	ErrNotDownloading     = errors.New("track is not downloading")
	ErrInvalidTrack       = errors.New("invalid track")
)

// ErrStale marks an event for a key that is no longer tracked.
var ErrStale = errors.New("stale download event")

// ErrDuplicateKey is returned by the registry when a key is already present.
var ErrDuplicateKey = errors.New("duplicate download key")

// Persistence errors. ErrWrite wraps ErrPersist so callers may match either.
var (
	ErrPersist      = errors.New("persist failed")
	ErrWrite        = fmt.Errorf("%w: storage write failed", ErrPersist)
	ErrNotAudio     = fmt.Errorf("%w: payload is not audio", ErrPersist)
	ErrEmptyPayload = fmt.Errorf("%w: empty payload", ErrPersist)
	ErrNotFound     = errors.New("record not found")
)

// ErrNoSpace is returned by export when the target filesystem is full.
var ErrNoSpace = errors.New("not enough free space")

// ErrTransfer wraps failures reported by the transfer layer.
var ErrTransfer = errors.New("transfer failed")
