// Package console renders download events as terminal log lines.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/nyantunes/nyantunes/internal/download"
	"github.com/nyantunes/nyantunes/internal/engine/events"
	"github.com/nyantunes/nyantunes/internal/engine/types"
)

const (
	DefaultProgressEvery = 500 * time.Millisecond
	DefaultBarWidth      = 24
)

// Reporter prints one line per lifecycle event and throttled progress
// lines. It is safe for concurrent use.
type Reporter struct {
	mu  sync.Mutex
	out io.Writer
	bar progress.Model

	names    map[string]string
	lastLine map[string]time.Time
	// live marks URLs between Started and their terminal event; early marks
	// URLs whose terminal event beat their Started.
	live  map[string]bool
	early map[string]bool
	every    time.Duration

	completed, failed, cancelled, skipped int
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{
		out: out,
		bar: progress.New(
			progress.WithGradient(ProgressStart, ProgressEnd),
			progress.WithWidth(DefaultBarWidth),
			progress.WithoutPercentage(),
		),
		names:    make(map[string]string),
		lastLine: make(map[string]time.Time),
		live:     make(map[string]bool),
		early:    make(map[string]bool),
		every:    DefaultProgressEvery,
	}
}

// SetProgressEvery changes the minimum gap between progress lines of one
// download. Zero prints every update.
func (r *Reporter) SetProgressEvery(d time.Duration) {
	r.mu.Lock()
	r.every = d
	r.mu.Unlock()
}

// Track registers a display name for track's URL.
func (r *Reporter) Track(t types.Track) {
	r.mu.Lock()
	r.names[t.URL] = t.DisplayName()
	r.mu.Unlock()
}

// Observer adapts the reporter for Manager.Register.
func (r *Reporter) Observer() download.Observer {
	return download.ObserverFunc(r.Handle)
}

// Handle renders e.
func (r *Reporter) Handle(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	url := e.DownloadURL()
	if events.IsTerminal(e) {
		if !r.live[url] {
			r.early[url] = true
		}
		delete(r.live, url)
	}

	name := r.nameLocked(url)
	switch m := e.(type) {
	case events.DownloadStartedMsg:
		if r.early[url] {
			// Cancelled before its Started reached us
			delete(r.early, url)
			return
		}
		r.live[url] = true
		r.printf("%s %s\n", LogStyleStarted.Render("Started:"), TitleStyle.Render(name))
	case events.ProgressMsg:
		now := time.Now()
		if m.Fraction < 1 && r.every > 0 && now.Sub(r.lastLine[m.URL]) < r.every {
			return
		}
		r.lastLine[m.URL] = now
		r.printf("  %s %s %s\n", r.bar.ViewAs(m.Fraction), LabelStyle.Render(m.SizeLabel), ArtistStyle.Render(name))
	case events.DownloadCompleteMsg:
		r.completed++
		delete(r.lastLine, m.URL)
		r.printf("%s %s\n", LogStyleComplete.Render("Completed:"), TitleStyle.Render(name))
	case events.DownloadCancelledMsg:
		r.cancelled++
		delete(r.lastLine, m.URL)
		r.printf("%s %s\n", LogStyleCancelled.Render("Cancelled:"), TitleStyle.Render(name))
	case events.DownloadErrorMsg:
		r.failed++
		delete(r.lastLine, m.URL)
		reason := m.Reason
		if reason == "" && m.Err != nil {
			reason = m.Err.Error()
		}
		r.printf("%s %s: %s\n", LogStyleError.Render("Error:"), TitleStyle.Render(name), reason)
	}
}

// Skip prints why url was not downloaded.
func (r *Reporter) Skip(url, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped++
	r.printf("%s %s (%s)\n", ArtistStyle.Render("Skipped:"), TitleStyle.Render(r.nameLocked(url)), reason)
}

// Summary returns a one-line tally of terminal events.
func (r *Reporter) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	parts := []string{LogStyleComplete.Render(fmt.Sprintf("%d completed", r.completed))}
	if r.failed > 0 {
		parts = append(parts, LogStyleError.Render(fmt.Sprintf("%d failed", r.failed)))
	}
	if r.cancelled > 0 {
		parts = append(parts, LogStyleCancelled.Render(fmt.Sprintf("%d cancelled", r.cancelled)))
	}
	if r.skipped > 0 {
		parts = append(parts, ArtistStyle.Render(fmt.Sprintf("%d skipped", r.skipped)))
	}
	return strings.Join(parts, ", ")
}

// Failed returns how many downloads ended in failure.
func (r *Reporter) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

func (r *Reporter) nameLocked(url string) string {
	if n, ok := r.names[url]; ok && n != "" {
		return n
	}
	return url
}

func (r *Reporter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}
