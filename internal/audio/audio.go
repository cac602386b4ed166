package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Format describes interleaved little-endian PCM.
type Format struct {
	SampleRate     int
	Channels       int
	BytesPerSample int
}

// RealtimeFormat is the PCM layout the realtime transcription service accepts.
var RealtimeFormat = Format{SampleRate: 24000, Channels: 1, BytesPerSample: 2}

func (f Format) BlockAlign() int {
	return f.Channels * f.BytesPerSample
}

// FrameBytes returns the byte length of a frame spanning d:
// round(sampleRate × d) sample frames times the block alignment.
func (f Format) FrameBytes(d time.Duration) int {
	samples := int(math.Round(float64(f.SampleRate) * d.Seconds()))
	if samples < 1 {
		samples = 1
	}
	return samples * f.BlockAlign()
}

func (f Format) Duration(byteLen int64) time.Duration {
	if f.SampleRate <= 0 || f.BlockAlign() <= 0 {
		return 0
	}
	samples := byteLen / int64(f.BlockAlign())
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate)
}

func (f Format) Validate() error {
	if f.SampleRate <= 0 || f.Channels <= 0 || f.BytesPerSample <= 0 {
		return fmt.Errorf("%w: %+v", ErrUnsupportedFormat, f)
	}
	return nil
}

// Require reports ErrUnsupportedFormat unless f equals want.
func (f Format) Require(want Format) error {
	if f != want {
		return fmt.Errorf("%w: got %dHz/%dch/%d-bit, want %dHz/%dch/%d-bit", ErrUnsupportedFormat,
			f.SampleRate, f.Channels, f.BytesPerSample*8,
			want.SampleRate, want.Channels, want.BytesPerSample*8)
	}
	return nil
}

// Source is an opened PCM resource positioned at the first sample.
type Source interface {
	io.Reader
	Format() Format
	Duration() time.Duration
	Close() error
}

type Opener interface {
	Open(path string) (Source, error)
}
