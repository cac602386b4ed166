package transcriber

import (
	"sync/atomic"
	"time"
)

// SendProgress is the sender-maintained cursor of audio already transmitted.
// Only the sender advances it; readers may observe a value one frame stale.
type SendProgress struct {
	timePerChunk time.Duration
	chunksSent   atomic.Int64
}

func NewSendProgress(timePerChunk time.Duration) *SendProgress {
	return &SendProgress{timePerChunk: timePerChunk}
}

// Advance records one more sent chunk and returns the new count.
func (p *SendProgress) Advance() int64 {
	return p.chunksSent.Add(1)
}

func (p *SendProgress) ChunksSent() int64 {
	return p.chunksSent.Load()
}

func (p *SendProgress) TimePerChunk() time.Duration {
	return p.timePerChunk
}

func (p *SendProgress) CurrentTime() time.Duration {
	return time.Duration(p.chunksSent.Load()) * p.timePerChunk
}

// Cursor returns the current time and whether any audio has been sent yet.
func (p *SendProgress) Cursor() (time.Duration, bool) {
	n := p.chunksSent.Load()
	return time.Duration(n) * p.timePerChunk, n > 0
}
