// Package transfer implements the byte transfer layer used by the download
// manager.
package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vfaronov/httpheader"

	"github.com/nyantunes/nyantunes/internal/download"
	"github.com/nyantunes/nyantunes/internal/engine/types"
	"github.com/nyantunes/nyantunes/internal/utils"
)

// ErrTimeout is reported through OnFailure when a transfer exceeds its
// configured timeout.
var ErrTimeout = errors.New("transfer timed out")

// HTTPTransfer fetches payloads over HTTP, one goroutine per transfer.
type HTTPTransfer struct {
	client  *http.Client
	runtime *types.RuntimeConfig

	wg sync.WaitGroup
}

// Handle identifies one in-flight HTTP transfer.
type Handle struct {
	ID  string
	URL string

	cancel  context.CancelFunc
	aborted atomic.Bool
}

// NewHTTPTransfer creates a transfer layer using the runtime settings.
func NewHTTPTransfer(runtime *types.RuntimeConfig) *HTTPTransfer {
	return &HTTPTransfer{client: newHTTPClient(), runtime: runtime}
}

func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   types.DialTimeout,
		KeepAlive: types.KeepAliveDuration,
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          types.DefaultMaxIdleConns,
			IdleConnTimeout:       types.DefaultIdleConnTimeout,
			TLSHandshakeTimeout:   types.DefaultTLSHandshakeTimeout,
			ResponseHeaderTimeout: types.DefaultResponseHeaderTimeout,
		},
	}
}

// Begin validates rawURL and starts the transfer in the background.
func (t *HTTPTransfer) Begin(rawURL string, l download.TransferListener) (types.TransferHandle, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q (use http:// or https://)", parsed.Scheme)
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.runtime.GetTimeout())
	h := &Handle{ID: uuid.New().String(), URL: rawURL, cancel: cancel}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()
		t.run(ctx, h, l)
	}()
	return h, nil
}

// Abort cancels the transfer. The listener later receives OnAborted.
func (t *HTTPTransfer) Abort(th types.TransferHandle) {
	h, ok := th.(*Handle)
	if !ok || h == nil {
		return
	}
	if h.aborted.CompareAndSwap(false, true) {
		utils.Debug("Transfer: aborting %s", h.URL)
	}
	h.cancel()
}

// Wait blocks until every started transfer has delivered its terminal
// callback.
func (t *HTTPTransfer) Wait() {
	t.wg.Wait()
}

func (t *HTTPTransfer) run(ctx context.Context, h *Handle, l download.TransferListener) {
	start := time.Now()
	data, err := t.fetch(ctx, h, l)
	switch {
	case err == nil:
		utils.Debug("Transfer: %s finished, %d bytes in %v", h.URL, len(data), time.Since(start))
		l.OnCompletion(data)
	case h.aborted.Load():
		l.OnAborted()
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		utils.Debug("Transfer: %s timed out after %v", h.URL, time.Since(start))
		l.OnFailure(fmt.Errorf("%w after %v", ErrTimeout, t.runtime.GetTimeout()))
	default:
		utils.Debug("Transfer: %s failed: %v", h.URL, err)
		l.OnFailure(err)
	}
}

func (t *HTTPTransfer) fetch(ctx context.Context, h *Handle, l download.TransferListener) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", t.runtime.GetUserAgent())

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if _, filename, _ := httpheader.ContentDisposition(resp.Header); filename != "" {
		utils.Debug("Transfer: %s served as %q", h.URL, filename)
	}

	total := resp.ContentLength
	var body bytes.Buffer
	if total > 0 && total <= types.MaxPreallocSize {
		body.Grow(int(total))
	}

	interval := t.runtime.GetProgressInterval()
	buf := make([]byte, types.TransferBufferSize)
	var written int64
	lastReport := time.Now()

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			body.Write(buf[:n])
			written += int64(n)
		}

		now := time.Now()
		if readErr == io.EOF || now.Sub(lastReport) >= interval {
			l.OnProgress(written, total)
			lastReport = now
		}

		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return nil, readErr
		}
	}

	if total > 0 && written < total {
		return nil, fmt.Errorf("short body: got %d of %d bytes", written, total)
	}
	return body.Bytes(), nil
}
