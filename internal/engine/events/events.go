// Package events defines the messages broadcast to download subscribers.
package events

// Event is any message emitted for a download.
type Event interface {
	EventType() string
	DownloadURL() string
}

type DownloadStartedMsg struct {
	URL string `json:"url"`
}

type ProgressMsg struct {
	URL       string  `json:"url"`
	Fraction  float64 `json:"fraction"`
	SizeLabel string  `json:"size_label"`
}

type DownloadCompleteMsg struct {
	URL string `json:"url"`
}

type DownloadCancelledMsg struct {
	URL string `json:"url"`
}

// DownloadErrorMsg reports a failed download. Err is kept for in-process
// consumers; Reason carries the text over the wire.
type DownloadErrorMsg struct {
	URL    string `json:"url"`
	Err    error  `json:"-"`
	Reason string `json:"reason"`
}

func (m DownloadStartedMsg) EventType() string   { return "started" }
func (m ProgressMsg) EventType() string          { return "progress" }
func (m DownloadCompleteMsg) EventType() string  { return "complete" }
func (m DownloadCancelledMsg) EventType() string { return "cancelled" }
func (m DownloadErrorMsg) EventType() string     { return "error" }

func (m DownloadStartedMsg) DownloadURL() string   { return m.URL }
func (m ProgressMsg) DownloadURL() string          { return m.URL }
func (m DownloadCompleteMsg) DownloadURL() string  { return m.URL }
func (m DownloadCancelledMsg) DownloadURL() string { return m.URL }
func (m DownloadErrorMsg) DownloadURL() string     { return m.URL }

// IsTerminal reports whether e ends a download.
func IsTerminal(e Event) bool {
	switch e.(type) {
	case DownloadCompleteMsg, DownloadCancelledMsg, DownloadErrorMsg:
		return true
	}
	return false
}
