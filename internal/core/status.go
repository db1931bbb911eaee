package core

import "github.com/nyantunes/nyantunes/internal/engine/types"

// Per-track affordances shown next to a listing.
const (
	StatusDownloading  = "downloading"
	StatusDownloaded   = "downloaded"
	StatusDownloadable = "downloadable"
)

// TrackStatus is the display state of one track.
type TrackStatus struct {
	Track    types.Track `json:"track"`
	Status   string      `json:"status"`
	Progress float64     `json:"progress,omitempty"`
}

// A live download wins over a stored record: re-downloading a persisted
// track shows as downloading until it ends.
func computeStatus(tracks []types.Track, live func(url string) (types.TaskInfo, bool), stored map[int64]bool) []TrackStatus {
	out := make([]TrackStatus, 0, len(tracks))
	for _, t := range tracks {
		st := TrackStatus{Track: t, Status: StatusDownloadable}
		if info, ok := live(t.URL); ok {
			st.Status = StatusDownloading
			st.Progress = info.Progress
		} else if stored[t.ID] {
			st.Status = StatusDownloaded
		}
		out = append(out, st)
	}
	return out
}

func pendingOf(statuses []TrackStatus) []types.Track {
	var out []types.Track
	seen := make(map[string]bool)
	for _, st := range statuses {
		if st.Status != StatusDownloadable || seen[st.Track.URL] {
			continue
		}
		seen[st.Track.URL] = true
		out = append(out, st.Track)
	}
	return out
}
