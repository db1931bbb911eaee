package core

import (
	"github.com/bogem/id3v2"

	"github.com/nyantunes/nyantunes/internal/engine/types"
)

// tagExport fills in the title and artist frames of an exported MP3 when
// the stored payload carries none. Existing frames are left alone.
func tagExport(path string, f types.AudioFile) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer func() { _ = tag.Close() }()

	changed := false
	if tag.Title() == "" && f.Title != "" {
		tag.SetTitle(f.Title)
		changed = true
	}
	if tag.Artist() == "" && f.Artist != "" {
		tag.SetArtist(f.Artist)
		changed = true
	}
	if !changed {
		return nil
	}
	return tag.Save()
}
