package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyantunes/nyantunes/internal/console"
	"github.com/nyantunes/nyantunes/internal/core"
	"github.com/nyantunes/nyantunes/internal/engine/events"
	"github.com/nyantunes/nyantunes/internal/engine/types"
	"github.com/nyantunes/nyantunes/internal/testutil"
)

func batchTracks(n int) []types.Track {
	tracks := make([]types.Track, n)
	for i := range tracks {
		tracks[i] = types.Track{
			ID:    int64(i + 1),
			Title: fmt.Sprintf("Song %d", i+1),
			URL:   fmt.Sprintf("https://example.com/%d.mp3", i+1),
		}
	}
	return tracks
}

func quietReporter() (*console.Reporter, *bytes.Buffer) {
	var buf bytes.Buffer
	rep := console.NewReporter(&buf)
	rep.SetProgressEvery(0)
	return rep, &buf
}

func TestRunBatch_CompletesAndFails(t *testing.T) {
	svc, transfer := newTestService(t)
	transfer.OnBegin = func(h *testutil.FakeHandle) {
		go func() {
			if h.URL == "https://example.com/3.mp3" {
				h.Fail(errors.New("HTTP 404"))
				return
			}
			h.Progress(50, 100)
			h.Complete(testutil.AudioPayload(100))
		}()
	}

	rep, out := quietReporter()
	err := runBatch(context.Background(), svc, batchTracks(4), 2, rep)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Failed())
	assert.Contains(t, rep.Summary(), "3 completed")
	assert.Contains(t, out.String(), "Error: Song 3")
	assert.Contains(t, out.String(), "HTTP 404")

	files, err := svc.Library()
	require.NoError(t, err)
	assert.Len(t, files, 3)
	assert.Empty(t, svc.Manager.ActiveDownloads())
}

func TestRunBatch_RespectsLimit(t *testing.T) {
	svc, transfer := newTestService(t)
	var inFlight, peak atomic.Int32
	transfer.OnBegin = func(h *testutil.FakeHandle) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		go func() {
			time.Sleep(20 * time.Millisecond)
			inFlight.Add(-1)
			h.Complete(testutil.AudioPayload(16))
		}()
	}

	rep, _ := quietReporter()
	require.NoError(t, runBatch(context.Background(), svc, batchTracks(8), 2, rep))

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Contains(t, rep.Summary(), "8 completed")
}

func TestRunBatch_BeginFailureReportedOnce(t *testing.T) {
	svc, transfer := newTestService(t)
	transfer.BeginErr = errors.New("connection refused")

	rep, out := quietReporter()
	require.NoError(t, runBatch(context.Background(), svc, batchTracks(1), 1, rep))

	assert.Equal(t, 1, rep.Failed())
	assert.Equal(t, 1, bytes.Count(out.Bytes(), []byte("Error:")))
}

func TestRunBatch_AlreadyDownloadingIsSkipped(t *testing.T) {
	svc, transfer := newTestService(t)
	tracks := batchTracks(1)
	_, err := svc.Start(tracks[0])
	require.NoError(t, err)

	rep, out := quietReporter()
	require.NoError(t, runBatch(context.Background(), svc, tracks, 1, rep))

	assert.Contains(t, out.String(), "Skipped: Song 1 (already downloading)")
	assert.Equal(t, 0, rep.Failed())
	assert.Equal(t, 1, transfer.Begun())
}

func TestRunBatch_CancelOnInterrupt(t *testing.T) {
	svc, transfer := newTestService(t)
	began := make(chan struct{}, 1)
	transfer.OnBegin = func(*testutil.FakeHandle) { began <- struct{}{} }

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-began
		cancel()
	}()

	rep, out := quietReporter()
	err := runBatch(ctx, svc, batchTracks(1), 1, rep)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Contains(t, out.String(), "Cancelled: Song 1")
	assert.Contains(t, rep.Summary(), "1 cancelled")
	assert.True(t, transfer.Last("https://example.com/1.mp3").Aborted())
	assert.Empty(t, svc.Manager.ActiveDownloads())
}

// silentService accepts downloads but never emits events, like a remote
// server whose event stream connected too late.
type silentService struct {
	stored bool
}

func (s *silentService) Start(t types.Track) (types.TaskHandle, error) {
	return types.TaskHandle{ID: "x", URL: t.URL}, nil
}
func (s *silentService) Cancel(string) error                            { return nil }
func (s *silentService) Active() ([]types.TaskInfo, error)              { return nil, nil }
func (s *silentService) Library() ([]types.AudioFile, error)            { return nil, nil }
func (s *silentService) Pending(t []types.Track) ([]types.Track, error) { return t, nil }
func (s *silentService) Shutdown() error                                { return nil }

func (s *silentService) Status(tracks []types.Track) ([]core.TrackStatus, error) {
	status := core.StatusDownloadable
	if s.stored {
		status = core.StatusDownloaded
	}
	out := make([]core.TrackStatus, len(tracks))
	for i, t := range tracks {
		out[i] = core.TrackStatus{Track: t, Status: status}
	}
	return out, nil
}

func (s *silentService) StreamEvents(ctx context.Context) (<-chan events.Event, func(), error) {
	ch := make(chan events.Event)
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, cancel, nil
}

func TestRunBatch_ResolvesLostEventsFromLibrary(t *testing.T) {
	old := batchPollInterval
	batchPollInterval = 5 * time.Millisecond
	t.Cleanup(func() { batchPollInterval = old })

	rep, _ := quietReporter()
	require.NoError(t, runBatch(context.Background(), &silentService{stored: true}, batchTracks(2), 2, rep))
	assert.Contains(t, rep.Summary(), "2 completed")

	rep, out := quietReporter()
	require.NoError(t, runBatch(context.Background(), &silentService{}, batchTracks(1), 1, rep))
	assert.Equal(t, 1, rep.Failed())
	assert.Contains(t, out.String(), "download ended without a result")
}

func TestUniqueByURL(t *testing.T) {
	in := []types.Track{{ID: 1, URL: "a"}, {ID: 2, URL: "b"}, {ID: 3, URL: "a"}}
	out := uniqueByURL(in)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].ID)
	assert.Equal(t, int64(2), out[1].ID)
}
