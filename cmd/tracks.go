package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyantunes/nyantunes/internal/engine/types"
	"github.com/nyantunes/nyantunes/internal/source"
)

// trackMeta overrides the guessed metadata of a single URL argument.
type trackMeta struct {
	ID       int64
	Title    string
	Artist   string
	Duration float64
}

func (m trackMeta) empty() bool {
	return m == trackMeta{}
}

func addTrackFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("batch", "b", "", "File containing URLs to download (one per line)")
	cmd.Flags().StringP("playlist", "p", "", "JSON playlist of tracks")
	cmd.Flags().Int64("id", 0, "Track ID (single URL only)")
	cmd.Flags().String("title", "", "Track title (single URL only)")
	cmd.Flags().String("artist", "", "Track artist (single URL only)")
	cmd.Flags().Float64("duration", 0, "Track duration in seconds (single URL only)")
}

// collectTracks gathers tracks from URL arguments and the batch and
// playlist flags.
func collectTracks(cmd *cobra.Command, args []string) ([]types.Track, error) {
	batchFile, _ := cmd.Flags().GetString("batch")
	playlistFile, _ := cmd.Flags().GetString("playlist")

	var meta trackMeta
	meta.ID, _ = cmd.Flags().GetInt64("id")
	meta.Title, _ = cmd.Flags().GetString("title")
	meta.Artist, _ = cmd.Flags().GetString("artist")
	meta.Duration, _ = cmd.Flags().GetFloat64("duration")

	urls := append([]string(nil), args...)
	if batchFile != "" {
		fileURLs, err := readURLsFromFile(batchFile)
		if err != nil {
			return nil, fmt.Errorf("reading batch file: %w", err)
		}
		urls = append(urls, fileURLs...)
	}

	var playlist []types.Track
	if playlistFile != "" {
		var err error
		playlist, err = source.LoadPlaylist(playlistFile)
		if err != nil {
			return nil, err
		}
	}
	return buildTracks(urls, playlist, meta)
}

func buildTracks(urls []string, playlist []types.Track, meta trackMeta) ([]types.Track, error) {
	if !meta.empty() && len(urls) != 1 {
		return nil, fmt.Errorf("--id, --title, --artist and --duration need exactly one URL")
	}

	tracks := make([]types.Track, 0, len(urls)+len(playlist))
	for _, u := range urls {
		t, err := source.TrackFromURL(u, source.SyntheticID(u))
		if err != nil {
			return nil, err
		}
		if meta.ID != 0 {
			t.ID = meta.ID
		}
		if meta.Title != "" {
			t.Title = meta.Title
		}
		if meta.Artist != "" {
			t.Artist = meta.Artist
		}
		if meta.Duration > 0 {
			t.Duration = meta.Duration
		}
		tracks = append(tracks, t)
	}
	return append(tracks, playlist...), nil
}
