package transfer

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyantunes/nyantunes/internal/download"
	"github.com/nyantunes/nyantunes/internal/engine/events"
	"github.com/nyantunes/nyantunes/internal/engine/types"
	"github.com/nyantunes/nyantunes/internal/testutil"
)

type progressPoint struct{ written, total int64 }

type listener struct {
	mu       sync.Mutex
	progress []progressPoint
	data     []byte
	failure  error
	aborted  bool
	terminal int

	done chan struct{}
}

func newListener() *listener {
	return &listener{done: make(chan struct{})}
}

func (l *listener) OnProgress(written, total int64) {
	l.mu.Lock()
	l.progress = append(l.progress, progressPoint{written, total})
	l.mu.Unlock()
}

func (l *listener) finish(fn func()) {
	l.mu.Lock()
	fn()
	l.terminal++
	l.mu.Unlock()
	close(l.done)
}

func (l *listener) OnCompletion(data []byte) { l.finish(func() { l.data = data }) }
func (l *listener) OnFailure(reason error)   { l.finish(func() { l.failure = reason }) }
func (l *listener) OnAborted()               { l.finish(func() { l.aborted = true }) }

func (l *listener) wait(t *testing.T) {
	t.Helper()
	select {
	case <-l.done:
	case <-time.After(5 * time.Second):
		t.Fatal("transfer did not finish")
	}
}

func newServer(t *testing.T) *testutil.AudioServer {
	s := testutil.NewAudioServer()
	t.Cleanup(s.Close)
	return s
}

func TestHTTPTransfer_Completes(t *testing.T) {
	srv := newServer(t)
	payload := testutil.AudioPayload(10 * types.KB)
	url := srv.Add("/a.mp3", payload)

	tr := NewHTTPTransfer(&types.RuntimeConfig{UserAgent: "test-agent/1.0"})
	l := newListener()
	h, err := tr.Begin(url, l)
	require.NoError(t, err)
	require.IsType(t, &Handle{}, h)
	l.wait(t)
	tr.Wait()

	assert.Equal(t, payload, l.data)
	assert.Nil(t, l.failure)
	assert.Equal(t, 1, l.terminal)
	require.NotEmpty(t, l.progress)
	last := l.progress[len(l.progress)-1]
	assert.Equal(t, progressPoint{int64(len(payload)), int64(len(payload))}, last)
	assert.Equal(t, "test-agent/1.0", srv.LastUserAgent())
}

func TestHTTPTransfer_DefaultUserAgent(t *testing.T) {
	srv := newServer(t)
	url := srv.Add("/a.mp3", testutil.AudioPayload(64))

	tr := NewHTTPTransfer(nil)
	l := newListener()
	_, err := tr.Begin(url, l)
	require.NoError(t, err)
	l.wait(t)

	assert.Contains(t, srv.LastUserAgent(), "nyantunes")
}

func TestHTTPTransfer_UnknownLength(t *testing.T) {
	srv := newServer(t)
	srv.OmitLength = true
	payload := testutil.AudioPayload(8 * types.KB)
	url := srv.Add("/a.mp3", payload)

	tr := NewHTTPTransfer(nil)
	l := newListener()
	_, err := tr.Begin(url, l)
	require.NoError(t, err)
	l.wait(t)

	assert.Equal(t, payload, l.data)
	last := l.progress[len(l.progress)-1]
	assert.Equal(t, int64(len(payload)), last.written)
	assert.LessOrEqual(t, last.total, int64(0))
}

func TestHTTPTransfer_HugeContentLengthFails(t *testing.T) {
	// Advertise a length no buffer could hold, then hang up early
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, buf, err := w.(http.Hijacker).Hijack()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Length: 9000000000000000000\r\n\r\nabc")
		_ = buf.Flush()
	}))
	t.Cleanup(srv.Close)

	tr := NewHTTPTransfer(nil)
	l := newListener()
	_, err := tr.Begin(srv.URL+"/big.mp3", l)
	require.NoError(t, err)
	l.wait(t)
	tr.Wait()

	require.Error(t, l.failure)
	assert.Nil(t, l.data)
	assert.Equal(t, 1, l.terminal)
}

func TestHTTPTransfer_ErrorStatus(t *testing.T) {
	srv := newServer(t)
	url := srv.Status("/gone.mp3", http.StatusNotFound)

	tr := NewHTTPTransfer(nil)
	l := newListener()
	_, err := tr.Begin(url, l)
	require.NoError(t, err)
	l.wait(t)

	require.Error(t, l.failure)
	assert.Contains(t, l.failure.Error(), "404")
	assert.Nil(t, l.data)
}

func TestHTTPTransfer_Abort(t *testing.T) {
	srv := newServer(t)
	srv.ChunkDelay = 50 * time.Millisecond
	url := srv.Add("/slow.mp3", testutil.AudioPayload(64*types.KB))

	tr := NewHTTPTransfer(nil)
	l := newListener()
	h, err := tr.Begin(url, l)
	require.NoError(t, err)

	tr.Abort(h)
	tr.Abort(h)
	l.wait(t)
	tr.Wait()

	assert.True(t, l.aborted)
	assert.Nil(t, l.data)
	assert.Equal(t, 1, l.terminal)
}

func TestHTTPTransfer_Timeout(t *testing.T) {
	srv := newServer(t)
	srv.ChunkDelay = 200 * time.Millisecond
	url := srv.Add("/slow.mp3", testutil.AudioPayload(16*types.KB))

	tr := NewHTTPTransfer(&types.RuntimeConfig{Timeout: 100 * time.Millisecond})
	l := newListener()
	_, err := tr.Begin(url, l)
	require.NoError(t, err)
	l.wait(t)

	assert.True(t, errors.Is(l.failure, ErrTimeout), "got %v", l.failure)
	assert.False(t, l.aborted)
}

func TestHTTPTransfer_RejectsBadURL(t *testing.T) {
	tr := NewHTTPTransfer(nil)

	_, err := tr.Begin("ftp://example.com/a.mp3", newListener())
	assert.Error(t, err)

	_, err = tr.Begin("://bad", newListener())
	assert.Error(t, err)

	tr.Abort(nil)
	tr.Abort("not a handle")
}

func TestHTTPTransfer_DrivesManager(t *testing.T) {
	srv := newServer(t)
	payload := testutil.AudioPayload(4 * types.KB)
	url := srv.Add("/track.mp3", payload)

	store := &captureStore{}
	tr := NewHTTPTransfer(nil)
	mgr := download.NewManager(tr, download.NewHandoff(store, true))

	done := make(chan events.Event, 1)
	mgr.Register(download.ObserverFunc(func(e events.Event) {
		if events.IsTerminal(e) {
			done <- e
		}
	}))

	_, err := mgr.StartDownload(types.Track{ID: 7, Title: "Track", URL: url})
	require.NoError(t, err)

	select {
	case e := <-done:
		assert.IsType(t, events.DownloadCompleteMsg{}, e)
	case <-time.After(5 * time.Second):
		t.Fatal("download did not finish")
	}
	assert.False(t, mgr.IsDownloading(url))
	assert.Equal(t, payload, store.last().Data)
}

type captureStore struct {
	mu    sync.Mutex
	files []types.AudioFile
}

func (s *captureStore) WriteRecord(f types.AudioFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, f)
	return nil
}

func (s *captureStore) last() types.AudioFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[len(s.files)-1]
}
