// Package source turns user input into track references.
package source

import (
	"net/url"
	"path"
	"strings"

	"github.com/nyantunes/nyantunes/internal/engine/types"
)

func Normalize(raw string) string {
	return strings.TrimSpace(raw)
}

func IsHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// CanonicalKey lowercases scheme and host and drops the fragment so the
// same remote file given twice in a playlist is recognised.
func CanonicalKey(raw string) string {
	s := Normalize(raw)
	if !IsHTTPURL(s) {
		return s
	}
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

// TrackFromURL builds a reference for a bare URL. The title falls back to
// the last path segment without its extension.
func TrackFromURL(raw string, id int64) (types.Track, error) {
	s := Normalize(raw)
	if !IsHTTPURL(s) {
		return types.Track{}, invalid("not an http(s) url: %q", raw)
	}
	u, _ := url.Parse(s)
	title := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
	if title == "" || title == "." || title == "/" {
		title = u.Host
	}
	if unescaped, err := url.PathUnescape(title); err == nil {
		title = unescaped
	}
	return types.Track{ID: id, Title: title, URL: s}, nil
}
