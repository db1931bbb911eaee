package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nyantunes/nyantunes/internal/core"
	"github.com/nyantunes/nyantunes/internal/engine/events"
	"github.com/nyantunes/nyantunes/internal/engine/types"
)

func TestReporter_Lifecycle(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	r.SetProgressEvery(0)
	r.Track(types.Track{Title: "Song", Artist: "Band", URL: "u1"})

	r.Handle(events.DownloadStartedMsg{URL: "u1"})
	r.Handle(events.ProgressMsg{URL: "u1", Fraction: 0.25, SizeLabel: "25.0% of 200 B"})
	r.Handle(events.DownloadCompleteMsg{URL: "u1"})
	r.Handle(events.DownloadErrorMsg{URL: "u2", Err: errors.New("HTTP 404")})
	r.Handle(events.DownloadCancelledMsg{URL: "u3"})

	out := buf.String()
	assert.Contains(t, out, "Started: Band - Song")
	assert.Contains(t, out, "25.0% of 200 B")
	assert.Contains(t, out, "Completed: Band - Song")
	assert.Contains(t, out, "Error: u2: HTTP 404")
	assert.Contains(t, out, "Cancelled: u3")

	assert.Equal(t, 1, r.Failed())
	summary := r.Summary()
	assert.Contains(t, summary, "1 completed")
	assert.Contains(t, summary, "1 failed")
	assert.Contains(t, summary, "1 cancelled")
}

func TestReporter_IgnoresStartedAfterCancel(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	r.Track(types.Track{Title: "Song", URL: "u"})

	r.Handle(events.DownloadCancelledMsg{URL: "u"})
	r.Handle(events.DownloadStartedMsg{URL: "u"})
	assert.NotContains(t, buf.String(), "Started:")

	// A later download of the same URL is reported normally
	r.Handle(events.DownloadStartedMsg{URL: "u"})
	r.Handle(events.DownloadCompleteMsg{URL: "u"})
	assert.Equal(t, 1, strings.Count(buf.String(), "Started: Song"))
	assert.Contains(t, buf.String(), "Completed: Song")
}

func TestReporter_Skip(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	r.Track(types.Track{Title: "Song", URL: "u"})

	r.Skip("u", "already downloading")

	assert.Contains(t, buf.String(), "Skipped: Song (already downloading)")
	assert.Contains(t, r.Summary(), "1 skipped")
	assert.Equal(t, 0, r.Failed())
}

func TestReporter_ThrottlesProgress(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	r.SetProgressEvery(time.Hour)

	r.Handle(events.ProgressMsg{URL: "u", Fraction: 0.1, SizeLabel: "first"})
	r.Handle(events.ProgressMsg{URL: "u", Fraction: 0.2, SizeLabel: "second"})
	r.Handle(events.ProgressMsg{URL: "u", Fraction: 1, SizeLabel: "final"})

	out := buf.String()
	assert.Contains(t, out, "first")
	assert.NotContains(t, out, "second")
	assert.Contains(t, out, "final")
}

func TestReporter_ObserverAdapter(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	obs := r.Observer()
	obs.OnDownloadStarted("u")
	obs.OnDownloadFailed("u", errors.New("boom"))

	assert.Contains(t, buf.String(), "Started: u")
	assert.Contains(t, buf.String(), "Error: u: boom")
}

func TestFormatLibrary(t *testing.T) {
	assert.Equal(t, "Library is empty.\n", FormatLibrary(nil))

	out := FormatLibrary([]types.AudioFile{
		{ID: 7, Title: "Song", Artist: "Band", Duration: 185, Size: 2048, MIME: "audio/mpeg"},
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.GreaterOrEqual(t, len(lines), 2)
	assert.Contains(t, out, "Band - Song")
	assert.Contains(t, out, "3:05")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "audio/mpeg")
}

func TestFormatStatus(t *testing.T) {
	out := FormatStatus([]core.TrackStatus{
		{Track: types.Track{ID: 1, Title: "A"}, Status: core.StatusDownloading, Progress: 0.5},
		{Track: types.Track{ID: 2, Title: "B"}, Status: core.StatusDownloaded},
		{Track: types.Track{ID: 3, Title: "C"}, Status: core.StatusDownloadable},
	})
	assert.Contains(t, out, "downloading 50%")
	assert.Contains(t, out, "downloaded")
	assert.Contains(t, out, "downloadable")
}

func TestFormatActive(t *testing.T) {
	assert.Equal(t, "No active downloads.\n", FormatActive(nil))

	out := FormatActive([]types.TaskInfo{{
		ID:       "0123456789abcdef",
		Track:    types.Track{Title: "Song", URL: "u"},
		Progress: 0.25, Written: 50, Total: 200,
		State: types.TaskInProgress,
	}})
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "89abcdef")
	assert.Contains(t, out, "downloading")
	assert.Contains(t, out, "25.0% of 200 B")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
