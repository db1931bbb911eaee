package download

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nyantunes/nyantunes/internal/engine/registry"
	"github.com/nyantunes/nyantunes/internal/engine/types"
	"github.com/nyantunes/nyantunes/internal/utils"
)

// Manager tracks concurrent downloads keyed by source URL. Start and cancel
// come from callers; progress and terminal events come from the transfer
// layer. Every check-then-act on the registry runs under its lock and
// observers are always notified after the lock is released.
type Manager struct {
	transfer  Transfer
	persister Persister
	registry  *registry.Registry

	observerMu sync.RWMutex
	observers  []registeredObserver
	nextID     int
}

type registeredObserver struct {
	id int
	o  Observer
}

// NewManager creates a manager issuing transfers through transfer and
// persisting completed downloads through persister.
func NewManager(transfer Transfer, persister Persister) *Manager {
	return &Manager{
		transfer:  transfer,
		persister: persister,
		registry:  registry.New(),
	}
}

// Register adds an observer. Observers are notified in registration order.
// The returned function removes it again.
func (m *Manager) Register(o Observer) (unregister func()) {
	m.observerMu.Lock()
	id := m.nextID
	m.nextID++
	m.observers = append(m.observers, registeredObserver{id: id, o: o})
	m.observerMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.observerMu.Lock()
			defer m.observerMu.Unlock()
			for i, ro := range m.observers {
				if ro.id == id {
					m.observers = append(m.observers[:i:i], m.observers[i+1:]...)
					break
				}
			}
		})
	}
}

func (m *Manager) notify(fn func(Observer)) {
	m.observerMu.RLock()
	list := make([]registeredObserver, len(m.observers))
	copy(list, m.observers)
	m.observerMu.RUnlock()

	for _, ro := range list {
		fn(ro.o)
	}
}

// StartDownload begins downloading track. It fails with
// ErrAlreadyDownloading when a live task exists for the same URL.
func (m *Manager) StartDownload(track types.Track) (types.TaskHandle, error) {
	if err := track.Validate(); err != nil {
		return types.TaskHandle{}, err
	}
	url := track.URL

	task := types.NewTask(track)
	if err := m.registry.Insert(url, task); err != nil {
		if errors.Is(err, types.ErrDuplicateKey) {
			return types.TaskHandle{}, fmt.Errorf("%w: %s", types.ErrAlreadyDownloading, url)
		}
		return types.TaskHandle{}, err
	}
	utils.Debug("Manager: reserved %s (task %s)", url, task.ID)
	m.notify(func(o Observer) { o.OnDownloadStarted(url) })

	handle, err := m.transfer.Begin(url, &taskListener{m: m, task: task})
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", types.ErrTransfer, url, err)
		if m.registry.RemoveIf(url, task) {
			task.State = types.TaskFailed
			m.notify(func(o Observer) { o.OnDownloadFailed(url, err) })
		}
		utils.Debug("Manager: begin failed for %s: %v", url, err)
		return types.TaskHandle{}, err
	}

	_, live := m.registry.Update(url, task, func(t *types.Task) {
		t.Handle = handle
		if t.State == types.TaskPending {
			t.State = types.TaskInProgress
		}
	})
	if !live {
		// Cancelled or finished while Begin was running; the canceller had
		// no handle to abort.
		utils.Debug("Manager: %s ended before its handle was recorded", url)
		m.transfer.Abort(handle)
	}

	return types.TaskHandle{ID: task.ID, URL: url}, nil
}

// CancelDownload aborts the live download for track and removes it before
// returning. It does not wait for the transfer layer to confirm.
func (m *Manager) CancelDownload(track types.Track) error {
	url := track.URL
	task, ok := m.registry.Remove(url)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrNotDownloading, url)
	}
	task.State = types.TaskCancelled

	if task.Handle != nil {
		m.transfer.Abort(task.Handle)
	}
	utils.Debug("Manager: cancelled %s (task %s)", url, task.ID)
	m.notify(func(o Observer) { o.OnDownloadCancelled(url) })
	return nil
}

// OnProgress records transfer progress for url. Events for a URL that is no
// longer tracked are logged and dropped.
func (m *Manager) OnProgress(url string, written, total int64) {
	task, ok := m.registry.Lookup(url)
	if !ok {
		utils.Debug("Manager: stale progress for %s", url)
		return
	}
	m.progress(task, written, total)
}

// OnCompletion hands the finished payload for url to persistence. It
// returns ErrStale when url is no longer tracked, or the persist error.
// The task is removed in every case.
func (m *Manager) OnCompletion(url string, data []byte) error {
	task, ok := m.registry.Lookup(url)
	if !ok {
		utils.Debug("Manager: stale completion for %s, discarding %d bytes", url, len(data))
		return fmt.Errorf("%w: %s", types.ErrStale, url)
	}
	return m.complete(task, data)
}

// OnFailure ends the download for url as failed.
func (m *Manager) OnFailure(url string, reason error) {
	task, ok := m.registry.Lookup(url)
	if !ok {
		utils.Debug("Manager: stale failure for %s: %v", url, reason)
		return
	}
	m.fail(task, reason)
}

// OnAborted handles the transfer layer's abort confirmation. A task that is
// still registered was aborted by the transfer itself and is reported as
// cancelled.
func (m *Manager) OnAborted(url string) {
	task, ok := m.registry.Lookup(url)
	if !ok {
		return
	}
	m.aborted(task)
}

// ActiveDownloads returns a point-in-time copy of every live task, oldest
// first.
func (m *Manager) ActiveDownloads() []types.TaskInfo {
	entries := m.registry.Snapshot()
	out := make([]types.TaskInfo, len(entries))
	for i, e := range entries {
		out[i] = e.Task
	}
	return out
}

// IsDownloading reports whether url has a live task.
func (m *Manager) IsDownloading(url string) bool {
	return m.registry.Contains(url)
}

// Get returns the live task for url.
func (m *Manager) Get(url string) (types.TaskInfo, bool) {
	return m.registry.Get(url)
}

// Shutdown cancels every live download.
func (m *Manager) Shutdown() {
	for _, task := range m.registry.Drain() {
		task.State = types.TaskCancelled
		if task.Handle != nil {
			m.transfer.Abort(task.Handle)
		}
		url := task.Track.URL
		m.notify(func(o Observer) { o.OnDownloadCancelled(url) })
	}
}

func (m *Manager) progress(task *types.Task, written, total int64) {
	url := task.Track.URL
	info, ok := m.registry.Update(url, task, func(t *types.Task) {
		t.Advance(written, total)
	})
	if !ok {
		utils.Debug("Manager: stale progress for %s (task %s)", url, task.ID)
		return
	}

	label := utils.ProgressLabel(info.Progress, info.Written, info.Total)
	m.notify(func(o Observer) { o.OnDownloadProgress(url, info.Progress, label) })
}

func (m *Manager) complete(task *types.Task, data []byte) error {
	url := task.Track.URL
	if !m.registry.RemoveIf(url, task) {
		utils.Debug("Manager: stale completion for %s (task %s)", url, task.ID)
		return fmt.Errorf("%w: %s", types.ErrStale, url)
	}

	if err := m.persister.Persist(task.Track, data); err != nil {
		task.State = types.TaskFailed
		utils.Debug("Manager: persist failed for %s: %v", url, err)
		m.notify(func(o Observer) { o.OnDownloadFailed(url, err) })
		return err
	}

	task.State = types.TaskCompleted
	task.Progress = 1
	utils.Debug("Manager: completed %s (task %s)", url, task.ID)
	m.notify(func(o Observer) { o.OnDownloadCompleted(url) })
	return nil
}

func (m *Manager) fail(task *types.Task, reason error) {
	url := task.Track.URL
	if !m.registry.RemoveIf(url, task) {
		utils.Debug("Manager: stale failure for %s: %v", url, reason)
		return
	}
	task.State = types.TaskFailed

	if reason == nil {
		reason = types.ErrTransfer
	} else if !errors.Is(reason, types.ErrTransfer) {
		reason = fmt.Errorf("%w: %w", types.ErrTransfer, reason)
	}
	utils.Debug("Manager: %s failed: %v", url, reason)
	m.notify(func(o Observer) { o.OnDownloadFailed(url, reason) })
}

func (m *Manager) aborted(task *types.Task) {
	url := task.Track.URL
	if !m.registry.RemoveIf(url, task) {
		return
	}
	task.State = types.TaskCancelled
	utils.Debug("Manager: transfer aborted %s", url)
	m.notify(func(o Observer) { o.OnDownloadCancelled(url) })
}

// taskListener binds transfer callbacks to the task that issued them, so a
// late event from an old transfer never touches a newer task for the same
// URL.
type taskListener struct {
	m    *Manager
	task *types.Task
}

func (l *taskListener) OnProgress(written, total int64) { l.m.progress(l.task, written, total) }
func (l *taskListener) OnCompletion(data []byte)        { _ = l.m.complete(l.task, data) }
func (l *taskListener) OnFailure(reason error)          { l.m.fail(l.task, reason) }
func (l *taskListener) OnAborted()                      { l.m.aborted(l.task) }
