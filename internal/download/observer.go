package download

import "github.com/nyantunes/nyantunes/internal/engine/events"

// Observer receives download lifecycle notifications. Calls arrive
// synchronously on the goroutine that produced the event; implementations
// that need a particular goroutine must dispatch themselves.
//
// OnDownloadStarted is sent after the URL is reserved, outside the lock, so a
// concurrent cancel may deliver OnDownloadCancelled for the URL first.
// Observers that pair events must tolerate a Started arriving after its
// terminal event.
type Observer interface {
	OnDownloadStarted(url string)
	OnDownloadProgress(url string, fraction float64, sizeLabel string)
	OnDownloadCompleted(url string)
	OnDownloadCancelled(url string)
	OnDownloadFailed(url string, reason error)
}

// NopObserver ignores every notification. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) OnDownloadStarted(string)                   {}
func (NopObserver) OnDownloadProgress(string, float64, string) {}
func (NopObserver) OnDownloadCompleted(string)                 {}
func (NopObserver) OnDownloadCancelled(string)                 {}
func (NopObserver) OnDownloadFailed(string, error)             {}

// ObserverFunc adapts a function over event messages to an Observer.
type ObserverFunc func(events.Event)

func (f ObserverFunc) OnDownloadStarted(url string) {
	f(events.DownloadStartedMsg{URL: url})
}

func (f ObserverFunc) OnDownloadProgress(url string, fraction float64, sizeLabel string) {
	f(events.ProgressMsg{URL: url, Fraction: fraction, SizeLabel: sizeLabel})
}

func (f ObserverFunc) OnDownloadCompleted(url string) {
	f(events.DownloadCompleteMsg{URL: url})
}

func (f ObserverFunc) OnDownloadCancelled(url string) {
	f(events.DownloadCancelledMsg{URL: url})
}

func (f ObserverFunc) OnDownloadFailed(url string, reason error) {
	msg := events.DownloadErrorMsg{URL: url, Err: reason}
	if reason != nil {
		msg.Reason = reason.Error()
	}
	f(msg)
}
