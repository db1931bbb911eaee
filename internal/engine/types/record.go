package types

import "time"

// AudioFile is a downloaded track persisted in the local library.
// Data is only populated when a single record is fetched.
type AudioFile struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	URL       string    `json:"url"`
	Duration  float64   `json:"duration"`
	MIME      string    `json:"mime"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Data      []byte    `json:"-"`
}

// NewAudioFile builds a record for track carrying data.
func NewAudioFile(track Track, data []byte, mime string) AudioFile {
	return AudioFile{
		ID:        track.ID,
		Title:     track.Title,
		Artist:    track.Artist,
		URL:       track.URL,
		Duration:  track.Duration,
		MIME:      mime,
		Size:      int64(len(data)),
		CreatedAt: time.Now(),
		Data:      data,
	}
}

// Track returns the reference the record was downloaded from.
func (f AudioFile) Track() Track {
	return Track{ID: f.ID, Title: f.Title, Artist: f.Artist, URL: f.URL, Duration: f.Duration}
}
