package core

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nyantunes/nyantunes/internal/engine/events"
	"github.com/nyantunes/nyantunes/internal/engine/types"
)

// RemoteDownloadService implements DownloadService against a running
// `serve` instance.
type RemoteDownloadService struct {
	BaseURL string
	Token   string
	Client  *http.Client
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewRemoteDownloadService creates a new remote service instance.
func NewRemoteDownloadService(baseURL string, token string) *RemoteDownloadService {
	ctx, cancel := context.WithCancel(context.Background())
	return &RemoteDownloadService{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{},
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *RemoteDownloadService) doRequest(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, bodyReader)
	if err != nil {
		cancel()
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+s.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}

	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		// Limit error body read to 1KB
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(bodyBytes))}
	}

	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses back to the manager's sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusConflict:
		return types.ErrAlreadyDownloading
	case http.StatusNotFound:
		return types.ErrNotDownloading
	case http.StatusBadRequest:
		return types.ErrInvalidTrack
	case http.StatusBadGateway:
		return types.ErrTransfer
	}
	return nil
}

func decodeJSON[T any](resp *http.Response) (T, error) {
	defer func() { _ = resp.Body.Close() }()
	var v T
	err := json.NewDecoder(resp.Body).Decode(&v)
	return v, err
}

// Health checks that the server answers.
func (s *RemoteDownloadService) Health() error {
	resp, err := s.doRequest(http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Start begins downloading track on the server.
func (s *RemoteDownloadService) Start(track types.Track) (types.TaskHandle, error) {
	resp, err := s.doRequest(http.MethodPost, "/downloads", track)
	if err != nil {
		return types.TaskHandle{}, err
	}
	return decodeJSON[types.TaskHandle](resp)
}

// Cancel aborts the server's live download for rawURL.
func (s *RemoteDownloadService) Cancel(rawURL string) error {
	resp, err := s.doRequest(http.MethodDelete, "/downloads?url="+url.QueryEscape(rawURL), nil)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Active returns the server's live downloads.
func (s *RemoteDownloadService) Active() ([]types.TaskInfo, error) {
	resp, err := s.doRequest(http.MethodGet, "/downloads", nil)
	if err != nil {
		return nil, err
	}
	return decodeJSON[[]types.TaskInfo](resp)
}

// Library returns the server's persisted records.
func (s *RemoteDownloadService) Library() ([]types.AudioFile, error) {
	resp, err := s.doRequest(http.MethodGet, "/library", nil)
	if err != nil {
		return nil, err
	}
	return decodeJSON[[]types.AudioFile](resp)
}

// Status combines the server's live downloads with its library.
func (s *RemoteDownloadService) Status(tracks []types.Track) ([]TrackStatus, error) {
	active, err := s.Active()
	if err != nil {
		return nil, err
	}
	files, err := s.Library()
	if err != nil {
		return nil, err
	}

	live := make(map[string]types.TaskInfo, len(active))
	for _, info := range active {
		live[info.Track.URL] = info
	}
	stored := make(map[int64]bool, len(files))
	for _, f := range files {
		stored[f.ID] = true
	}
	lookup := func(url string) (types.TaskInfo, bool) {
		info, ok := live[url]
		return info, ok
	}
	return computeStatus(tracks, lookup, stored), nil
}

// Pending returns the tracks the server neither holds nor is downloading.
func (s *RemoteDownloadService) Pending(tracks []types.Track) ([]types.Track, error) {
	statuses, err := s.Status(tracks)
	if err != nil {
		return nil, err
	}
	return pendingOf(statuses), nil
}

// Shutdown stops the service.
func (s *RemoteDownloadService) Shutdown() error {
	s.cancel()
	return nil
}

// StreamEvents returns a channel that receives real-time download events via SSE.
func (s *RemoteDownloadService) StreamEvents(ctx context.Context) (<-chan events.Event, func(), error) {
	ch := make(chan events.Event, types.EventChannelBuffer)
	streamCtx, cancel := context.WithCancel(s.ctx)
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-streamCtx.Done():
		}
	}()
	go s.streamWithReconnect(streamCtx, ch)
	return ch, cancel, nil
}

func (s *RemoteDownloadService) streamWithReconnect(ctx context.Context, ch chan events.Event) {
	defer close(ch)
	backoff := 1 * time.Second
	for {
		err := s.connectSSE(ctx, ch)
		if ctx.Err() != nil || err == nil {
			return
		}
		// Check context again before sleeping
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (s *RemoteDownloadService) connectSSE(ctx context.Context, ch chan events.Event) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/events", nil)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to connect to event stream: %s", resp.Status)
	}

	reader := bufio.NewReader(resp.Body)
	var eventType string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			msg, ok := DecodeEvent(eventType, []byte(strings.TrimPrefix(line, "data: ")))
			eventType = ""
			if !ok {
				continue
			}
			if _, isProgress := msg.(events.ProgressMsg); isProgress {
				// Drop progress if the reader is behind
				select {
				case ch <- msg:
				default:
				}
				continue
			}
			select {
			case ch <- msg:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// DecodeEvent parses one SSE payload by its event name.
func DecodeEvent(eventType string, data []byte) (events.Event, bool) {
	switch eventType {
	case "started":
		return decodeAs[events.DownloadStartedMsg](data)
	case "progress":
		return decodeAs[events.ProgressMsg](data)
	case "complete":
		return decodeAs[events.DownloadCompleteMsg](data)
	case "cancelled":
		return decodeAs[events.DownloadCancelledMsg](data)
	case "error":
		return decodeAs[events.DownloadErrorMsg](data)
	}
	return nil, false
}

func decodeAs[T events.Event](data []byte) (events.Event, bool) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return m, true
}
