package transcriber

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/foxseedlab/jimakun/internal/audio"
)

var (
	// ErrConnClosed marks a clean end of the duplex connection, either closed
	// by the far end or torn down locally. It is never surfaced to callers.
	ErrConnClosed = errors.New("transcriber: connection closed")

	ErrMissingAPIKey = errors.New("transcriber: api key is not configured")
)

type Subtitle struct {
	ID    int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Transcriber turns one audio source into a finite, non-restartable sequence
// of subtitles. A non-nil error is always the last element. Stopping the
// iteration early tears the underlying connection down.
type Transcriber interface {
	StreamTranscription(ctx context.Context, src audio.Source) iter.Seq2[Subtitle, error]
}

// Conn is a message-oriented duplex connection. Send and Receive may run
// concurrently with each other; Close may be called at any time and must
// unblock both, after which they return ErrConnClosed.
type Conn interface {
	Send(v any) error
	Receive() ([]byte, error)
	Close() error
}
