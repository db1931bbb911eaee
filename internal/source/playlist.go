package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"

	"github.com/nyantunes/nyantunes/internal/engine/types"
	"github.com/nyantunes/nyantunes/internal/utils"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", types.ErrInvalidTrack, fmt.Sprintf(format, args...))
}

// playlistItem accepts the audio item shape of the social API as well as
// the plain track shape.
type playlistItem struct {
	ID       json.Number `json:"id"`
	Title    string      `json:"title"`
	Artist   string      `json:"artist"`
	URL      string      `json:"url"`
	Duration json.Number `json:"duration"`
}

type playlistEnvelope struct {
	Tracks   []playlistItem `json:"tracks"`
	Items    []playlistItem `json:"items"`
	Response *struct {
		Items []playlistItem `json:"items"`
	} `json:"response"`
}

// ParsePlaylist reads tracks from JSON. It accepts a bare array, an object
// with "tracks" or "items", or an API envelope {"response":{"items":[...]}}.
// Entries without a playable URL are skipped, as are repeated URLs.
func ParsePlaylist(r io.Reader) ([]types.Track, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var items []playlistItem
	if data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to parse playlist: %w", err)
		}
	} else {
		var env playlistEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("failed to parse playlist: %w", err)
		}
		switch {
		case env.Response != nil:
			items = env.Response.Items
		case env.Tracks != nil:
			items = env.Tracks
		default:
			items = env.Items
		}
	}

	tracks := make([]types.Track, 0, len(items))
	seen := make(map[string]bool)
	for i, it := range items {
		t, err := it.track()
		if err != nil {
			utils.Debug("Playlist: skipping entry %d: %v", i, err)
			continue
		}
		key := CanonicalKey(t.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// LoadPlaylist parses the playlist file at path.
func LoadPlaylist(path string) ([]types.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open playlist: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParsePlaylist(f)
}

func (it playlistItem) track() (types.Track, error) {
	u := Normalize(it.URL)
	if !IsHTTPURL(u) {
		return types.Track{}, invalid("missing or unsupported url %q", it.URL)
	}

	var id int64
	if it.ID != "" {
		n, err := it.ID.Int64()
		if err != nil {
			return types.Track{}, invalid("bad id %q", it.ID)
		}
		id = n
	} else {
		id = SyntheticID(u)
	}

	var duration float64
	if it.Duration != "" {
		d, err := it.Duration.Float64()
		if err != nil {
			return types.Track{}, invalid("bad duration %q", it.Duration)
		}
		duration = d
	}

	return types.Track{ID: id, Title: it.Title, Artist: it.Artist, URL: u, Duration: duration}, nil
}

// SyntheticID derives a stable positive ID for a track that has none.
func SyntheticID(rawURL string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(CanonicalKey(rawURL)))
	return int64(h.Sum64() >> 1)
}
