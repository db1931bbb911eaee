package core

import (
	"context"

	"github.com/nyantunes/nyantunes/internal/engine/events"
	"github.com/nyantunes/nyantunes/internal/engine/types"
)

// DownloadService is the surface the CLI and the HTTP API drive. It is
// served either by the embedded manager or by a running `serve` instance.
type DownloadService interface {
	// Start begins downloading track.
	Start(track types.Track) (types.TaskHandle, error)

	// Cancel aborts the live download for url.
	Cancel(url string) error

	// Active returns a snapshot of every live download.
	Active() ([]types.TaskInfo, error)

	// Library returns the persisted records without payloads.
	Library() ([]types.AudioFile, error)

	// Status reports whether each track is downloading, downloaded or
	// downloadable.
	Status(tracks []types.Track) ([]TrackStatus, error)

	// Pending filters tracks down to the downloadable ones, without
	// duplicate URLs.
	Pending(tracks []types.Track) ([]types.Track, error)

	// StreamEvents returns a channel of download events and a cleanup
	// function that unsubscribes it. The channel closes when ctx is done.
	StreamEvents(ctx context.Context) (<-chan events.Event, func(), error)

	// Shutdown stops the service.
	Shutdown() error
}
