package testutil

import (
	"sync"
	"sync/atomic"

	"github.com/nyantunes/nyantunes/internal/download"
	"github.com/nyantunes/nyantunes/internal/engine/types"
)

// FakeTransfer is a scripted transfer layer. Begin records the listener and
// returns immediately; tests drive callbacks through the returned handles.
type FakeTransfer struct {
	mu      sync.Mutex
	handles []*FakeHandle

	// BeginErr, when set, makes Begin fail.
	BeginErr error
	// OnBegin runs inside Begin before it returns.
	OnBegin func(h *FakeHandle)
}

// FakeHandle is one transfer issued by FakeTransfer.
type FakeHandle struct {
	URL      string
	Listener download.TransferListener

	aborts atomic.Int32
}

func NewFakeTransfer() *FakeTransfer {
	return &FakeTransfer{}
}

func (f *FakeTransfer) Begin(url string, l download.TransferListener) (types.TransferHandle, error) {
	if f.BeginErr != nil {
		return nil, f.BeginErr
	}
	h := &FakeHandle{URL: url, Listener: l}
	f.mu.Lock()
	f.handles = append(f.handles, h)
	hook := f.OnBegin
	f.mu.Unlock()

	if hook != nil {
		hook(h)
	}
	return h, nil
}

func (f *FakeTransfer) Abort(h types.TransferHandle) {
	if fh, ok := h.(*FakeHandle); ok {
		fh.aborts.Add(1)
	}
}

// Begun returns how many transfers were issued.
func (f *FakeTransfer) Begun() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handles)
}

// Last returns the most recent transfer issued for url.
func (f *FakeTransfer) Last(url string) *FakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.handles) - 1; i >= 0; i-- {
		if f.handles[i].URL == url {
			return f.handles[i]
		}
	}
	return nil
}

func (h *FakeHandle) Progress(written, total int64) { h.Listener.OnProgress(written, total) }
func (h *FakeHandle) Complete(data []byte)          { h.Listener.OnCompletion(data) }
func (h *FakeHandle) Fail(reason error)             { h.Listener.OnFailure(reason) }
func (h *FakeHandle) ConfirmAbort()                 { h.Listener.OnAborted() }

// Aborted reports whether Abort was called for this transfer.
func (h *FakeHandle) Aborted() bool { return h.aborts.Load() > 0 }

// Aborts returns how many times Abort was called for this transfer.
func (h *FakeHandle) Aborts() int { return int(h.aborts.Load()) }
