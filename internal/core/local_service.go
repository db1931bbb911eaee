package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nyantunes/nyantunes/internal/config"
	"github.com/nyantunes/nyantunes/internal/download"
	"github.com/nyantunes/nyantunes/internal/engine/events"
	"github.com/nyantunes/nyantunes/internal/engine/state"
	"github.com/nyantunes/nyantunes/internal/engine/types"
	"github.com/nyantunes/nyantunes/internal/utils"
)

// LocalDownloadService implements DownloadService on the embedded manager
// and library store.
type LocalDownloadService struct {
	Manager *download.Manager
	Store   *state.Store
	InputCh chan events.Event

	unregister func()

	// Broadcast fields
	listeners  []*subscriber
	listenerMu sync.Mutex

	closeMu sync.RWMutex
	closed  bool

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc

	settings *config.Settings
}

type subscriber struct {
	ch   chan events.Event
	done chan struct{}
	once sync.Once
}

// NewLocalDownloadService wires transfer and store into a manager and
// starts broadcasting its events.
func NewLocalDownloadService(transfer download.Transfer, store *state.Store, settings *config.Settings) *LocalDownloadService {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	runtime := types.ConvertRuntimeConfig(settings.ToRuntimeConfig())

	s := &LocalDownloadService{
		Manager:  download.NewManager(transfer, download.NewHandoff(store, runtime.GetRequireAudio())),
		Store:    store,
		InputCh:  make(chan events.Event, types.EventChannelBuffer),
		settings: settings,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.unregister = s.Manager.Register(download.ObserverFunc(s.publish))

	go s.broadcastLoop()
	return s
}

// Settings returns the settings the service was last loaded with.
func (s *LocalDownloadService) Settings() *config.Settings {
	return s.settings
}

// publish feeds the broadcaster. Progress is dropped when the input is
// full; terminal and start events are always queued.
func (s *LocalDownloadService) publish(msg events.Event) {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return
	}

	if _, ok := msg.(events.ProgressMsg); ok {
		select {
		case s.InputCh <- msg:
		default:
		}
		return
	}
	s.InputCh <- msg
}

func (s *LocalDownloadService) broadcastLoop() {
	for msg := range s.InputCh {
		_, isProgress := msg.(events.ProgressMsg)

		s.listenerMu.Lock()
		// Once shut down, nothing may stall on a subscriber
		lossy := isProgress || s.ctx.Err() != nil
		for _, l := range s.listeners {
			if lossy {
				// Non-blocking send to avoid stalling if a client is slow
				select {
				case l.ch <- msg:
				default:
				}
				continue
			}
			select {
			case l.ch <- msg:
			case <-l.done:
			case <-s.ctx.Done():
			}
		}
		s.listenerMu.Unlock()
	}

	// Close all listeners when input closes
	s.listenerMu.Lock()
	for _, l := range s.listeners {
		l.once.Do(func() { close(l.done) })
		close(l.ch)
	}
	s.listeners = nil
	s.listenerMu.Unlock()
}

// StreamEvents returns a channel that receives real-time download events.
func (s *LocalDownloadService) StreamEvents(ctx context.Context) (<-chan events.Event, func(), error) {
	sub := &subscriber{
		ch:   make(chan events.Event, types.EventChannelBuffer),
		done: make(chan struct{}),
	}

	s.listenerMu.Lock()
	if s.ctx.Err() != nil {
		s.listenerMu.Unlock()
		return nil, nil, fmt.Errorf("service is shut down")
	}
	s.listeners = append(s.listeners, sub)
	s.listenerMu.Unlock()

	cleanup := func() { s.unsubscribe(sub) }

	// Cleanup listener on context cancellation
	go func() {
		select {
		case <-ctx.Done():
		case <-s.ctx.Done():
		case <-sub.done:
			return
		}
		cleanup()
	}()

	return sub.ch, cleanup, nil
}

func (s *LocalDownloadService) unsubscribe(sub *subscriber) {
	// Unblock the broadcaster before taking its lock.
	sub.once.Do(func() { close(sub.done) })

	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	for i, l := range s.listeners {
		if l == sub {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			close(sub.ch)
			break
		}
	}
}

// Start begins downloading track.
func (s *LocalDownloadService) Start(track types.Track) (types.TaskHandle, error) {
	return s.Manager.StartDownload(track)
}

// Cancel aborts the live download for url.
func (s *LocalDownloadService) Cancel(url string) error {
	return s.Manager.CancelDownload(types.Track{URL: url})
}

// Active returns a snapshot of every live download.
func (s *LocalDownloadService) Active() ([]types.TaskInfo, error) {
	return s.Manager.ActiveDownloads(), nil
}

// Library returns the persisted records without payloads.
func (s *LocalDownloadService) Library() ([]types.AudioFile, error) {
	return s.Store.ListRecords()
}

// Status computes the per-track affordance from registry presence and
// library membership.
func (s *LocalDownloadService) Status(tracks []types.Track) ([]TrackStatus, error) {
	stored, err := s.Store.RecordIDs()
	if err != nil {
		return nil, err
	}
	return computeStatus(tracks, s.Manager.Get, stored), nil
}

// Pending returns the tracks that are neither in the library nor
// downloading. Callers use it to avoid re-downloading persisted tracks.
func (s *LocalDownloadService) Pending(tracks []types.Track) ([]types.Track, error) {
	statuses, err := s.Status(tracks)
	if err != nil {
		return nil, err
	}
	return pendingOf(statuses), nil
}

// Delete removes a persisted record.
func (s *LocalDownloadService) Delete(id int64) error {
	if err := s.Store.DeleteRecord(id); err != nil {
		return err
	}
	utils.Debug("Deleted library record %d", id)
	return nil
}

// Export writes the payload of record id into dir as "<title> <id>.mp3"
// and returns the written path.
func (s *LocalDownloadService) Export(id int64, dir string) (string, error) {
	f, err := s.Store.GetRecord(id)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = s.Settings().ExportDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := ensureSpace(dir, len(f.Data)); err != nil {
		return "", err
	}

	dest := filepath.Join(dir, ExportFilename(f))
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(f.Data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move export into place: %w", err)
	}

	if f.MIME == "audio/mpeg" {
		if err := tagExport(dest, f); err != nil {
			utils.Debug("Could not tag export %s: %v", dest, err)
		}
	}
	return dest, nil
}

var filenameReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "\x00", "")

// ExportFilename names an exported record.
func ExportFilename(f types.AudioFile) string {
	title := strings.TrimSpace(filenameReplacer.Replace(f.Title))
	if title == "" {
		title = "track"
	}
	return fmt.Sprintf("%s %d.mp3", title, f.ID)
}

// Shutdown cancels live downloads and stops the broadcaster.
func (s *LocalDownloadService) Shutdown() error {
	// Stop listeners first so a stalled subscriber cannot block the broadcaster
	s.cancel()

	s.Manager.Shutdown()
	s.unregister()

	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	close(s.InputCh)
	s.closeMu.Unlock()
	return nil
}
