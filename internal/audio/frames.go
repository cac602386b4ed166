package audio

import (
	"errors"
	"fmt"
	"io"
	"iter"
)

// Frames splits r into frames of frameBytes in read order. The final frame may
// be shorter; an empty frame is never yielded. A read error is yielded once and
// ends the sequence.
func Frames(r io.Reader, frameBytes int) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if frameBytes <= 0 {
			yield(nil, fmt.Errorf("invalid frame size %d", frameBytes))
			return
		}
		for {
			buf := make([]byte, frameBytes)
			n, err := io.ReadFull(r, buf)
			switch {
			case err == nil:
				if !yield(buf, nil) {
					return
				}
			case errors.Is(err, io.EOF):
				return
			case errors.Is(err, io.ErrUnexpectedEOF):
				yield(buf[:n], nil)
				return
			default:
				if n > 0 && !yield(buf[:n], nil) {
					return
				}
				yield(nil, fmt.Errorf("read audio frame: %w", err))
				return
			}
		}
	}
}
