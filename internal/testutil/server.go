package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// AudioServer serves registered payloads over HTTP for transfer tests.
type AudioServer struct {
	*httptest.Server

	mu       sync.Mutex
	files    map[string][]byte
	statuses map[string]int

	// ChunkSize is how many bytes are written per flush.
	ChunkSize int
	// ChunkDelay pauses between chunks.
	ChunkDelay time.Duration
	// OmitLength sends the body chunked without Content-Length.
	OmitLength bool

	requests  atomic.Int32
	userAgent atomic.Value
}

func NewAudioServer() *AudioServer {
	s := &AudioServer{
		files:     make(map[string][]byte),
		statuses:  make(map[string]int),
		ChunkSize: 1024,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Add registers data at path and returns its full URL.
func (s *AudioServer) Add(path string, data []byte) string {
	s.mu.Lock()
	s.files[path] = data
	s.mu.Unlock()
	return s.URL + path
}

// Status makes path answer with code and no body.
func (s *AudioServer) Status(path string, code int) string {
	s.mu.Lock()
	s.statuses[path] = code
	s.mu.Unlock()
	return s.URL + path
}

// Requests returns the number of requests served.
func (s *AudioServer) Requests() int { return int(s.requests.Load()) }

// LastUserAgent returns the User-Agent of the latest request.
func (s *AudioServer) LastUserAgent() string {
	ua, _ := s.userAgent.Load().(string)
	return ua
}

func (s *AudioServer) handle(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	s.userAgent.Store(r.UserAgent())

	s.mu.Lock()
	code, hasStatus := s.statuses[r.URL.Path]
	data, ok := s.files[r.URL.Path]
	s.mu.Unlock()

	if hasStatus {
		w.WriteHeader(code)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "track.mp3"))
	if !s.OmitLength {
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	}
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	chunk := s.ChunkSize
	if chunk <= 0 {
		chunk = len(data)
	}
	for off := 0; off < len(data); off += chunk {
		end := min(off+chunk, len(data))
		if _, err := w.Write(data[off:end]); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		if s.ChunkDelay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(s.ChunkDelay):
			}
		}
	}
}
