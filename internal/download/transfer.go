package download

import "github.com/nyantunes/nyantunes/internal/engine/types"

// TransferListener receives the callbacks of one transfer: OnProgress zero
// or more times, then exactly one of OnCompletion, OnFailure or OnAborted.
type TransferListener interface {
	OnProgress(written, total int64)
	OnCompletion(data []byte)
	OnFailure(reason error)
	OnAborted()
}

// Transfer performs the byte transfer for a URL.
//
// Begin must not block for the duration of the transfer. Abort must be safe
// to call more than once and on a transfer that already finished.
type Transfer interface {
	Begin(url string, l TransferListener) (types.TransferHandle, error)
	Abort(h types.TransferHandle)
}
