package types

import (
	"fmt"
	"strings"
)

// Track identifies a remotely playable audio item. URL is the download key.
type Track struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
}

// Validate reports whether the track can be downloaded.
// Title and artist may be empty for malformed entries; only the URL is required.
func (t Track) Validate() error {
	if strings.TrimSpace(t.URL) == "" {
		return fmt.Errorf("%w: missing url", ErrInvalidTrack)
	}
	return nil
}

// DisplayName returns "Artist - Title", falling back to whatever is present.
func (t Track) DisplayName() string {
	switch {
	case t.Artist != "" && t.Title != "":
		return t.Artist + " - " + t.Title
	case t.Title != "":
		return t.Title
	case t.Artist != "":
		return t.Artist
	default:
		return t.URL
	}
}
