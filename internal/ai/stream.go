package ai

import "context"

// BackendError tags a streaming failure so callers can decide between
// presentation and propagation instead of parsing error strings out of
// chat content.
type BackendError struct {
	Kind   string
	Detail string
}

const (
	// ErrKindUnreachable covers connect/transport failures.
	ErrKindUnreachable = "unreachable"
	// ErrKindProtocol covers unexpected statuses and malformed payloads.
	ErrKindProtocol = "protocol"
	// ErrKindCanceled covers caller-side cancellation.
	ErrKindCanceled = "canceled"
)

func (e *BackendError) Error() string {
	return e.Kind + ": " + e.Detail
}

// Fragment is one element of a response stream: either a piece of text or a
// terminal error. A stream never carries both in one fragment.
type Fragment struct {
	Text string
	Err  *BackendError
}

// send delivers f to a stream consumer. It returns false when the consumer
// has abandoned the turn, so producers must stop instead of blocking on a
// full buffer; the undelivered fragment is discarded.
func send(ctx context.Context, ch chan<- Fragment, f Fragment) bool {
	select {
	case ch <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

// Collect drains a fragment stream into the full response text. The error,
// if any, is the stream's terminal fragment.
func Collect(ch <-chan Fragment) (string, *BackendError) {
	var text string
	var berr *BackendError
	for f := range ch {
		if f.Err != nil {
			berr = f.Err
			continue
		}
		text += f.Text
	}
	return text, berr
}
