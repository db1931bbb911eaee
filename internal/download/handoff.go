package download

import (
	"fmt"

	"github.com/h2non/filetype"

	"github.com/nyantunes/nyantunes/internal/engine/types"
	"github.com/nyantunes/nyantunes/internal/utils"
)

// RecordWriter is the persistent store as seen by the handoff.
type RecordWriter interface {
	WriteRecord(f types.AudioFile) error
}

// Persister turns a finished transfer into a durable record.
type Persister interface {
	Persist(track types.Track, data []byte) error
}

// Handoff persists completed downloads through a RecordWriter.
type Handoff struct {
	store        RecordWriter
	requireAudio bool
}

// NewHandoff returns a handoff writing to store. With requireAudio set,
// payloads that do not sniff as audio are rejected before any write.
func NewHandoff(store RecordWriter, requireAudio bool) *Handoff {
	return &Handoff{store: store, requireAudio: requireAudio}
}

// Persist writes one record for track holding data. The store writes the
// record in a single transaction.
func (h *Handoff) Persist(track types.Track, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: %s", types.ErrEmptyPayload, track.URL)
	}

	mime := DetectMIME(data)
	if h.requireAudio && !filetype.IsAudio(data) {
		return fmt.Errorf("%w: %s sniffed as %q", types.ErrNotAudio, track.URL, mime)
	}

	if err := h.store.WriteRecord(types.NewAudioFile(track, data, mime)); err != nil {
		utils.Debug("Handoff: write failed for %d (%s): %v", track.ID, track.URL, err)
		return fmt.Errorf("%w: %w", types.ErrWrite, err)
	}
	utils.Debug("Handoff: stored %d (%s), %d bytes, %s", track.ID, track.URL, len(data), mime)
	return nil
}

// DetectMIME sniffs the payload type, falling back to a generic binary type.
func DetectMIME(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream"
	}
	return kind.MIME.Value
}
