package transcriber

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/foxseedlab/jimakun/internal/transcriber"
)

type RealtimeConfig struct {
	APIKey          string
	URL             string
	Session         transcriber.SessionConfig
	FrameDuration   time.Duration
	SendInterval    time.Duration
	PollInterval    time.Duration
	TailIdleTimeout time.Duration
	DialTimeout     time.Duration
}

type RealtimeTranscriber struct {
	cfg  RealtimeConfig
	dial func(ctx context.Context) (transcriber.Conn, error)
}

func NewRealtimeTranscriber(cfg RealtimeConfig) transcriber.Transcriber {
	t := &RealtimeTranscriber{cfg: cfg}
	t.dial = func(ctx context.Context) (transcriber.Conn, error) {
		return dialRealtime(ctx, cfg.URL, cfg.APIKey, cfg.DialTimeout)
	}
	return t
}

func (t *RealtimeTranscriber) StreamTranscription(ctx context.Context, src audio.Source) iter.Seq2[transcriber.Subtitle, error] {
	return func(yield func(transcriber.Subtitle, error) bool) {
		if strings.TrimSpace(t.cfg.APIKey) == "" {
			yield(transcriber.Subtitle{}, transcriber.ErrMissingAPIKey)
			return
		}
		format := src.Format()
		if err := format.Require(audio.RealtimeFormat); err != nil {
			yield(transcriber.Subtitle{}, fmt.Errorf("realtime transcription input: %w", err))
			return
		}

		conn, err := t.dial(ctx)
		if err != nil {
			yield(transcriber.Subtitle{}, fmt.Errorf("dial realtime api: %w", err))
			return
		}
		slog.Info("connected to realtime api", "audio_sec", src.Duration().Seconds(), "model", t.cfg.Session.Model)

		stream := transcriber.Stream(ctx, conn, src, format, transcriber.StreamOptions{
			Session:         t.cfg.Session,
			FrameDuration:   t.cfg.FrameDuration,
			SendInterval:    t.cfg.SendInterval,
			PollInterval:    t.cfg.PollInterval,
			TailIdleTimeout: t.cfg.TailIdleTimeout,
		})
		for sub, err := range stream {
			if !yield(sub, err) {
				return
			}
		}
	}
}
