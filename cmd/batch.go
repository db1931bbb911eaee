package cmd

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nyantunes/nyantunes/internal/console"
	"github.com/nyantunes/nyantunes/internal/core"
	"github.com/nyantunes/nyantunes/internal/engine/events"
	"github.com/nyantunes/nyantunes/internal/engine/types"
)

const (
	maxBatchConcurrency = 16

	// A download missing from Active for this many polls without a
	// terminal event is resolved from the library instead.
	lostAfterPolls = 3
)

var batchPollInterval = time.Second

// waiters hands each URL's terminal event to the goroutine waiting on it.
// claim decides which of the event stream and the poll fallback reports
// the outcome.
type waiters struct {
	mu      sync.Mutex
	pending map[string]chan events.Event
}

func newWaiters() *waiters {
	return &waiters{pending: make(map[string]chan events.Event)}
}

func (w *waiters) add(url string) <-chan events.Event {
	ch := make(chan events.Event, 1)
	w.mu.Lock()
	w.pending[url] = ch
	w.mu.Unlock()
	return ch
}

func (w *waiters) claim(url string) (chan events.Event, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch, ok := w.pending[url]
	if ok {
		delete(w.pending, url)
	}
	return ch, ok
}

func (w *waiters) waiting(url string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending[url] != nil
}

// runBatch downloads tracks through svc with at most limit in flight and
// reports every outcome to rep. It returns once every track has ended or
// ctx is cancelled, in which case live downloads are cancelled.
func runBatch(ctx context.Context, svc core.DownloadService, tracks []types.Track, limit int, rep *console.Reporter) error {
	if limit < 1 {
		limit = 1
	}
	if limit > maxBatchConcurrency {
		limit = maxBatchConcurrency
	}

	streamCtx, stopStream := context.WithCancel(ctx)
	defer stopStream()
	stream, cleanup, err := svc.StreamEvents(streamCtx)
	if err != nil {
		return err
	}

	w := newWaiters()
	for _, t := range tracks {
		rep.Track(t)
	}

	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for e := range stream {
			url := e.DownloadURL()
			if !w.waiting(url) {
				continue
			}
			if !events.IsTerminal(e) {
				rep.Handle(e)
				continue
			}
			if ch, ok := w.claim(url); ok {
				rep.Handle(e)
				ch <- e
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(limit)
	for _, t := range tracks {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			done := w.add(t.URL)
			if _, err := svc.Start(t); err != nil {
				switch {
				case errors.Is(err, types.ErrTransfer):
					// The failure also arrives as an event; wait for it.
				case errors.Is(err, types.ErrAlreadyDownloading):
					if _, ok := w.claim(t.URL); ok {
						rep.Skip(t.URL, "already downloading")
					}
					return nil
				default:
					if _, ok := w.claim(t.URL); ok {
						rep.Handle(events.DownloadErrorMsg{URL: t.URL, Err: err, Reason: err.Error()})
					}
					return nil
				}
			}
			awaitTrack(ctx, svc, t, w, done, rep)
			return nil
		})
	}
	_ = g.Wait()

	cleanup()
	<-dispatched
	return ctx.Err()
}

func awaitTrack(ctx context.Context, svc core.DownloadService, t types.Track, w *waiters, done <-chan events.Event, rep *console.Reporter) {
	ticker := time.NewTicker(batchPollInterval)
	defer ticker.Stop()

	missed := 0
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			// The cancelled event is reported by the stream if it is
			// still open; claim so nothing else reports it.
			_ = svc.Cancel(t.URL)
			if _, ok := w.claim(t.URL); ok {
				rep.Handle(events.DownloadCancelledMsg{URL: t.URL})
			}
			return
		case <-ticker.C:
			if isActive(svc, t.URL) {
				missed = 0
				continue
			}
			missed++
			if missed < lostAfterPolls {
				continue
			}
			if _, ok := w.claim(t.URL); ok {
				rep.Handle(resolveFromLibrary(svc, t))
			}
			return
		}
	}
}

func isActive(svc core.DownloadService, url string) bool {
	active, err := svc.Active()
	if err != nil {
		// Unknown; keep waiting.
		return true
	}
	for _, info := range active {
		if info.Track.URL == url {
			return true
		}
	}
	return false
}

func resolveFromLibrary(svc core.DownloadService, t types.Track) events.Event {
	statuses, err := svc.Status([]types.Track{t})
	if err == nil && len(statuses) == 1 && statuses[0].Status == core.StatusDownloaded {
		return events.DownloadCompleteMsg{URL: t.URL}
	}
	reason := "download ended without a result"
	if err != nil {
		reason = err.Error()
	}
	return events.DownloadErrorMsg{URL: t.URL, Reason: reason}
}

// uniqueByURL drops repeated URLs, keeping the first track for each.
func uniqueByURL(tracks []types.Track) []types.Track {
	seen := make(map[string]bool, len(tracks))
	out := make([]types.Track, 0, len(tracks))
	for _, t := range tracks {
		if seen[t.URL] {
			continue
		}
		seen[t.URL] = true
		out = append(out, t)
	}
	return out
}
