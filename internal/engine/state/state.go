package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nyantunes/nyantunes/internal/engine/types"
)

// WriteRecord stores f, replacing any record with the same ID. The write
// runs in one transaction so a partial record is never visible.
func (s *Store) WriteRecord(f types.AudioFile) error {
	if f.Data == nil {
		f.Data = []byte{}
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO audio_files (
				id, title, artist, url, duration, mime, size, data, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title=excluded.title,
				artist=excluded.artist,
				url=excluded.url,
				duration=excluded.duration,
				mime=excluded.mime,
				size=excluded.size,
				data=excluded.data,
				created_at=excluded.created_at
		`, f.ID, f.Title, f.Artist, f.URL, f.Duration, f.MIME, int64(len(f.Data)), f.Data, f.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to upsert audio file %d: %w", f.ID, err)
		}
		return nil
	})
}

// ListRecords returns every record without its payload, ordered by title.
func (s *Store) ListRecords() ([]types.AudioFile, error) {
	rows, err := s.db.Query(`
		SELECT id, title, artist, url, duration, mime, size, created_at
		FROM audio_files
		ORDER BY title COLLATE NOCASE, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query audio files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []types.AudioFile
	for rows.Next() {
		f, err := scanRecord(rows, false)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// GetRecord returns the record for id including its payload.
func (s *Store) GetRecord(id int64) (types.AudioFile, error) {
	row := s.db.QueryRow(`
		SELECT id, title, artist, url, duration, mime, size, created_at, data
		FROM audio_files WHERE id = ?
	`, id)

	f, err := scanRecord(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return types.AudioFile{}, fmt.Errorf("audio file %d: %w", id, types.ErrNotFound)
	}
	return f, err
}

// HasRecord reports whether a record exists for id.
func (s *Store) HasRecord(id int64) (bool, error) {
	var n int
	if err := s.db.QueryRow("SELECT count(*) FROM audio_files WHERE id = ?", id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to query audio file %d: %w", id, err)
	}
	return n > 0, nil
}

// RecordIDs returns the set of persisted IDs, used to pre-filter tracks
// before starting downloads.
func (s *Store) RecordIDs() (map[int64]bool, error) {
	rows, err := s.db.Query("SELECT id FROM audio_files")
	if err != nil {
		return nil, fmt.Errorf("failed to query audio file ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// DeleteRecord removes the record for id.
func (s *Store) DeleteRecord(id int64) error {
	result, err := s.db.Exec("DELETE FROM audio_files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete audio file %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("audio file %d: %w", id, types.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner, withData bool) (types.AudioFile, error) {
	var f types.AudioFile
	var title, artist, mime sql.NullString
	var duration sql.NullFloat64
	var size, createdAt sql.NullInt64

	dest := []any{&f.ID, &title, &artist, &f.URL, &duration, &mime, &size, &createdAt}
	if withData {
		dest = append(dest, &f.Data)
	}
	if err := row.Scan(dest...); err != nil {
		return types.AudioFile{}, err
	}

	f.Title = title.String
	f.Artist = artist.String
	f.MIME = mime.String
	f.Duration = duration.Float64
	f.Size = size.Int64
	if createdAt.Valid {
		f.CreatedAt = time.Unix(createdAt.Int64, 0)
	}
	return f, nil
}
