package testutil

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
)

// id3Header is a minimal ID3v2.4 header with an empty tag, enough for MIME
// sniffing to report audio/mpeg.
var id3Header = []byte{'I', 'D', '3', 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

// AudioPayload returns size bytes that sniff as MP3: an ID3 header followed
// by random data. Sizes smaller than the header are padded up to it.
func AudioPayload(size int) []byte {
	if size < len(id3Header) {
		size = len(id3Header)
	}
	buf := make([]byte, size)
	copy(buf, id3Header)
	_, _ = rand.Read(buf[len(id3Header):])
	return buf
}

// TextPayload returns size bytes of plain text that never sniff as audio.
func TextPayload(size int) []byte {
	return bytes.Repeat([]byte("not audio "), size/10+1)[:size]
}

// WriteTestFile writes data under dir and returns its path.
func WriteTestFile(dir, name string, data []byte) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CompareFiles checks if two files have identical content.
func CompareFiles(path1, path2 string) (bool, error) {
	data1, err := os.ReadFile(path1)
	if err != nil {
		return false, err
	}

	data2, err := os.ReadFile(path2)
	if err != nil {
		return false, err
	}

	return bytes.Equal(data1, data2), nil
}
