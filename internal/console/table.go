package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nyantunes/nyantunes/internal/core"
	"github.com/nyantunes/nyantunes/internal/engine/types"
	"github.com/nyantunes/nyantunes/internal/utils"
)

var (
	idCol       = lipgloss.NewStyle().Width(12)
	nameCol     = lipgloss.NewStyle().Width(44).MaxWidth(44)
	durationCol = lipgloss.NewStyle().Width(9)
	sizeCol     = lipgloss.NewStyle().Width(11)
	statusCol   = lipgloss.NewStyle().Width(14)
)

func row(cells ...string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// FormatLibrary renders persisted records, one per line.
func FormatLibrary(files []types.AudioFile) string {
	if len(files) == 0 {
		return "Library is empty.\n"
	}
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(row(
		idCol.Render("ID"), nameCol.Render("TRACK"), durationCol.Render("LENGTH"), sizeCol.Render("SIZE"), "TYPE",
	)))
	b.WriteString("\n")
	for _, f := range files {
		b.WriteString(row(
			idCol.Render(fmt.Sprint(f.ID)),
			nameCol.Render(truncate(f.Track().DisplayName(), 42)),
			durationCol.Render(utils.FormatDuration(f.Duration)),
			sizeCol.Render(utils.ConvertBytesToHumanReadable(f.Size)),
			ArtistStyle.Render(f.MIME),
		))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatStatus renders the affordance of each track.
func FormatStatus(statuses []core.TrackStatus) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(row(
		idCol.Render("ID"), nameCol.Render("TRACK"), durationCol.Render("LENGTH"), "STATUS",
	)))
	b.WriteString("\n")
	for _, st := range statuses {
		status := st.Status
		if st.Status == core.StatusDownloading {
			status = fmt.Sprintf("%s %.0f%%", status, st.Progress*100)
		}
		b.WriteString(row(
			idCol.Render(fmt.Sprint(st.Track.ID)),
			nameCol.Render(truncate(st.Track.DisplayName(), 42)),
			durationCol.Render(utils.FormatDuration(st.Track.Duration)),
			StatusStyle(st.Status).Render(status),
		))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatActive renders live downloads.
func FormatActive(tasks []types.TaskInfo) string {
	if len(tasks) == 0 {
		return "No active downloads.\n"
	}
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(row(
		idCol.Render("TASK"), nameCol.Render("TRACK"), statusCol.Render("STATE"), "PROGRESS",
	)))
	b.WriteString("\n")
	for _, t := range tasks {
		id := t.ID
		if len(id) > 8 {
			id = id[:8]
		}
		b.WriteString(row(
			idCol.Render(id),
			nameCol.Render(truncate(t.Track.DisplayName(), 42)),
			statusCol.Render(t.State.String()),
			LabelStyle.Render(utils.ProgressLabel(t.Progress, t.Written, t.Total)),
		))
		b.WriteString("\n")
	}
	return b.String()
}
