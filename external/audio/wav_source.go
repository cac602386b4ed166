package audio

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

type WAVOpener struct{}

func NewWAVOpener() audio.Opener {
	return &WAVOpener{}
}

// Open parses the RIFF headers and positions the returned source at the first
// byte of the data chunk.
func (o *WAVOpener) Open(path string) (audio.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	src, err := newWAVSource(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

type wavSource struct {
	file   *os.File
	pcm    io.Reader
	format audio.Format
	length int64
}

func newWAVSource(f *os.File) (*wavSource, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("%w: invalid wav file: %v", audio.ErrUnsupportedFormat, err)
		}
		return nil, fmt.Errorf("%w: invalid wav file", audio.ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: wav encoding %d is not linear PCM", audio.ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	if dec.BitDepth%8 != 0 {
		return nil, fmt.Errorf("%w: bit depth %d", audio.ErrUnsupportedFormat, dec.BitDepth)
	}
	info := dec.Format()
	format := audio.Format{
		SampleRate:     info.SampleRate,
		Channels:       info.NumChannels,
		BytesPerSample: int(dec.BitDepth) / 8,
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("locate pcm data: %w", err)
	}
	length := dec.PCMLen()
	return &wavSource{
		file:   f,
		pcm:    io.LimitReader(dec.PCMChunk, length),
		format: format,
		length: length,
	}, nil
}

func (s *wavSource) Read(p []byte) (int, error) {
	return s.pcm.Read(p)
}

func (s *wavSource) Format() audio.Format {
	return s.format
}

func (s *wavSource) Duration() time.Duration {
	return s.format.Duration(s.length)
}

func (s *wavSource) Close() error {
	return s.file.Close()
}
