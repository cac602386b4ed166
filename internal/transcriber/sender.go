package transcriber

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"
)

const progressLogEveryChunks = 50

type audioSender struct {
	conn     Conn
	progress *SendProgress
	interval time.Duration
}

func newAudioSender(conn Conn, progress *SendProgress, interval time.Duration) *audioSender {
	return &audioSender{conn: conn, progress: progress, interval: interval}
}

// run streams every frame and then commits the buffer. A clean close from the
// far end stops it without error and skips the commit.
func (s *audioSender) run(ctx context.Context, frames iter.Seq2[[]byte, error]) error {
	for frame, err := range frames {
		if err != nil {
			return err
		}
		msg := appendAudioEvent{
			Type:  eventInputAudioAppend,
			Audio: base64.StdEncoding.EncodeToString(frame),
		}
		if err := s.conn.Send(msg); err != nil {
			if errors.Is(err, ErrConnClosed) {
				slog.Info("connection closed while sending audio; skipping commit",
					"chunks_sent", s.progress.ChunksSent(),
					"audio_sent_sec", s.progress.CurrentTime().Seconds())
				return nil
			}
			return fmt.Errorf("send audio chunk %d: %w", s.progress.ChunksSent()+1, err)
		}
		if n := s.progress.Advance(); n%progressLogEveryChunks == 0 {
			slog.Debug("audio send progress", "chunks_sent", n, "audio_sent_sec", s.progress.CurrentTime().Seconds())
		}
		if err := s.pause(ctx); err != nil {
			return err
		}
	}

	if err := s.conn.Send(commitAudioEvent{Type: eventInputAudioCommit}); err != nil {
		if errors.Is(err, ErrConnClosed) {
			slog.Info("connection closed before audio commit", "chunks_sent", s.progress.ChunksSent())
			return nil
		}
		return fmt.Errorf("commit audio buffer: %w", err)
	}
	slog.Info("audio sent and committed",
		"chunks_sent", s.progress.ChunksSent(),
		"audio_sent_sec", s.progress.CurrentTime().Seconds())
	return nil
}

func (s *audioSender) pause(ctx context.Context) error {
	if s.interval <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
