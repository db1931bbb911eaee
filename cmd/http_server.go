package cmd

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nyantunes/nyantunes/internal/config"
	"github.com/nyantunes/nyantunes/internal/core"
	"github.com/nyantunes/nyantunes/internal/engine/types"
	"github.com/nyantunes/nyantunes/internal/source"
	"github.com/nyantunes/nyantunes/internal/utils"
)

// maxTrackBody bounds a POST /downloads request body.
const maxTrackBody = 64 * types.KB

// APIHandler handles HTTP API requests
type APIHandler struct {
	service core.DownloadService
	port    int
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(service core.DownloadService, port int) *APIHandler {
	return &APIHandler{
		service: service,
		port:    port,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Debug("Failed to encode response: %v", err)
	}
}

// writeServiceError maps manager sentinels onto status codes the remote
// client maps back.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrAlreadyDownloading):
		status = http.StatusConflict
	case errors.Is(err, types.ErrNotDownloading):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrInvalidTrack):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrTransfer):
		status = http.StatusBadGateway
	}
	http.Error(w, err.Error(), status)
}

// Health check endpoint (Public)
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"port":    h.port,
		"version": Version,
	})
}

// Events endpoint (Protected)
func (h *APIHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	stream, cleanup, err := h.service.StreamEvents(r.Context())
	if err != nil {
		http.Error(w, "Failed to subscribe to events", http.StatusServiceUnavailable)
		return
	}
	defer cleanup()

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	done := r.Context().Done()
	for {
		select {
		case <-done:
			return
		case msg, ok := <-stream:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				utils.Debug("Error marshaling event: %v", err)
				continue
			}

			// SSE Format:
			// event: <type>
			// data: <json>
			_, _ = fmt.Fprintf(w, "event: %s\n", msg.EventType())
			_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// Downloads endpoint (Protected). GET lists live downloads, POST starts
// one, DELETE ?url= cancels one.
func (h *APIHandler) Downloads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		active, err := h.service.Active()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, active)

	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxTrackBody)
		var track types.Track
		if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer func() {
			if err := r.Body.Close(); err != nil {
				utils.Debug("Error closing body: %v", err)
			}
		}()

		track.URL = source.Normalize(track.URL)
		if track.URL != "" && !source.IsHTTPURL(track.URL) {
			http.Error(w, "Only http(s) URLs are supported", http.StatusBadRequest)
			return
		}
		if track.ID == 0 && track.URL != "" {
			track.ID = source.SyntheticID(track.URL)
		}
		utils.Debug("Received download request: URL=%s, ID=%d", track.URL, track.ID)

		handle, err := h.service.Start(track)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, handle)

	case http.MethodDelete:
		url := r.URL.Query().Get("url")
		if url == "" {
			http.Error(w, "Missing url parameter", http.StatusBadRequest)
			return
		}
		if err := h.service.Cancel(url); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled", "url": url})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Library endpoint (Protected)
func (h *APIHandler) Library(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	files, err := h.service.Library()
	if err != nil {
		http.Error(w, "Failed to list library: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if files == nil {
		files = []types.AudioFile{}
	}
	writeJSON(w, http.StatusOK, files)
}

// newAPIServer builds the routed, authenticated handler.
func newAPIServer(service core.DownloadService, port int, token string) http.Handler {
	handler := NewAPIHandler(service, port)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handler.Health)
	mux.HandleFunc("/events", handler.Events)
	mux.HandleFunc("/downloads", handler.Downloads)
	mux.HandleFunc("/library", handler.Library)

	// CORS outermost so 401s carry the headers too
	return corsMiddleware(authMiddleware(token, mux))
}

// startHTTPServer serves the API on an existing listener until srv is shut down.
func startHTTPServer(ln net.Listener, srv *http.Server) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		utils.Debug("HTTP server error: %v", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func authMiddleware(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Allow health check without auth
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			providedToken := strings.TrimPrefix(authHeader, "Bearer ")
			if len(providedToken) == len(token) && subtle.ConstantTimeCompare([]byte(providedToken), []byte(token)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}

		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

func tokenPath() string {
	return filepath.Join(config.GetRuntimeDir(), "token")
}

// ensureAuthToken returns the persisted API token, creating one on first use.
func ensureAuthToken() string {
	if token := readAuthToken(); token != "" {
		return token
	}

	token := uuid.New().String()
	if err := os.WriteFile(tokenPath(), []byte(token), 0o600); err != nil {
		utils.Debug("Failed to write token file: %v", err)
	}
	return token
}

func readAuthToken() string {
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
