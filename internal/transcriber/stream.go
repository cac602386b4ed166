package transcriber

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/jimakun/internal/audio"
	"golang.org/x/sync/errgroup"
)

const (
	defaultFrameDuration = 20 * time.Millisecond
	defaultPollInterval  = 500 * time.Millisecond

	// pendingTailFactor bounds how long an open utterance may hold the idle
	// tail, as a multiple of TailIdleTimeout.
	pendingTailFactor = 6
)

type StreamOptions struct {
	Session         SessionConfig
	FrameDuration   time.Duration
	SendInterval    time.Duration
	PollInterval    time.Duration
	TailIdleTimeout time.Duration
}

type CoordinatorOptions struct {
	PollInterval time.Duration
	// TailIdleTimeout closes the connection once sending has finished, nothing
	// has arrived for this long and no utterance is open. Open utterances
	// delay the close to pendingTailFactor times this value. Zero waits for
	// the far end to close.
	TailIdleTimeout time.Duration
}

// Units are the two halves of one run against a shared connection.
type Units struct {
	Send    func(ctx context.Context) error
	Receive func(ctx context.Context, emit func(Subtitle)) error
	Close   func() error
	// Activity is optional and only consulted for the idle tail.
	Activity func() (last time.Time, pending int)
}

// Stream configures the realtime session on conn and then runs the audio
// sender and event receiver against it. Stream owns conn from here on and
// closes it before the returned sequence finishes.
func Stream(ctx context.Context, conn Conn, src io.Reader, format audio.Format, opts StreamOptions) iter.Seq2[Subtitle, error] {
	return func(yield func(Subtitle, error) bool) {
		frameDuration := opts.FrameDuration
		if frameDuration <= 0 {
			frameDuration = defaultFrameDuration
		}
		frameBytes := format.FrameBytes(frameDuration)

		if err := conn.Send(newSessionUpdate(opts.Session)); err != nil {
			_ = conn.Close()
			yield(Subtitle{}, fmt.Errorf("configure transcription session: %w", err))
			return
		}
		slog.Info("transcription session configured",
			"model", opts.Session.Model,
			"vad_threshold", opts.Session.VADThreshold,
			"frame_bytes", frameBytes)

		progress := NewSendProgress(format.Duration(int64(frameBytes)))
		sender := newAudioSender(conn, progress, opts.SendInterval)
		receiver := newEventReceiver(conn, progress)
		units := Units{
			Send: func(ctx context.Context) error {
				return sender.run(ctx, audio.Frames(src, frameBytes))
			},
			Receive:  receiver.run,
			Close:    conn.Close,
			Activity: receiver.activity,
		}
		coordinated := Coordinate(ctx, units, CoordinatorOptions{
			PollInterval:    opts.PollInterval,
			TailIdleTimeout: opts.TailIdleTimeout,
		})
		for sub, err := range coordinated {
			if !yield(sub, err) {
				return
			}
		}
	}
}

// Coordinate runs units.Send and units.Receive concurrently and yields every
// subtitle the receiver emits, in order. The first failure of either unit is
// yielded after the subtitles already queued. Both units have returned and
// units.Close has been called by the time the sequence ends.
func Coordinate(ctx context.Context, units Units, opts CoordinatorOptions) iter.Seq2[Subtitle, error] {
	return func(yield func(Subtitle, error) bool) {
		pollInterval := opts.PollInterval
		if pollInterval <= 0 {
			pollInterval = defaultPollInterval
		}

		runCtx, cancel := context.WithCancel(ctx)
		run := newStreamRun(units, cancel)
		run.start(runCtx)
		defer run.shutdown()

		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			if err := run.failure(); err != nil {
				for _, sub := range run.queue.drain() {
					if !yield(sub, nil) {
						return
					}
				}
				yield(Subtitle{}, err)
				return
			}
			if sub, ok := run.queue.pop(); ok {
				if !yield(sub, nil) {
					return
				}
				continue
			}
			if run.finished() && run.queue.len() == 0 {
				return
			}
			run.closeIdleTail(opts.TailIdleTimeout)

			select {
			case <-run.queue.notify:
			case <-run.failed:
			case <-run.done:
			case <-ticker.C:
			case <-ctx.Done():
				yield(Subtitle{}, ctx.Err())
				return
			}
		}
	}
}

type streamRun struct {
	units  Units
	queue  *subtitleQueue
	group  errgroup.Group
	cancel context.CancelFunc

	sendDone       chan struct{}
	sendFinishedAt time.Time
	done           chan struct{}

	failed  chan struct{}
	errOnce sync.Once
	err     error

	closeOnce sync.Once
}

func newStreamRun(units Units, cancel context.CancelFunc) *streamRun {
	return &streamRun{
		units:    units,
		queue:    newSubtitleQueue(),
		cancel:   cancel,
		sendDone: make(chan struct{}),
		done:     make(chan struct{}),
		failed:   make(chan struct{}),
	}
}

func (r *streamRun) start(ctx context.Context) {
	r.group.Go(func() error {
		err := r.units.Send(ctx)
		r.sendFinishedAt = time.Now()
		close(r.sendDone)
		if err != nil {
			r.fail(err)
		}
		return err
	})
	r.group.Go(func() error {
		err := r.units.Receive(ctx, r.queue.push)
		if err != nil {
			r.fail(err)
		}
		return err
	})
	go func() {
		_ = r.group.Wait()
		close(r.done)
	}()
}

func (r *streamRun) fail(err error) {
	r.errOnce.Do(func() {
		r.err = err
		close(r.failed)
	})
}

func (r *streamRun) failure() error {
	select {
	case <-r.failed:
		return r.err
	default:
		return nil
	}
}

func (r *streamRun) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *streamRun) sendFinished() (time.Time, bool) {
	select {
	case <-r.sendDone:
		return r.sendFinishedAt, true
	default:
		return time.Time{}, false
	}
}

func (r *streamRun) closeIdleTail(timeout time.Duration) {
	if timeout <= 0 || r.units.Activity == nil {
		return
	}
	sentAt, ok := r.sendFinished()
	if !ok {
		return
	}
	last, pending := r.units.Activity()
	idleSince := last
	if sentAt.After(idleSince) {
		idleSince = sentAt
	}
	idle := time.Since(idleSince)
	if idle < timeout {
		return
	}
	if pending > 0 && idle < pendingTailFactor*timeout {
		return
	}
	slog.Info("closing idle stream tail", "idle_sec", idle.Seconds(), "pending_utterances", pending)
	r.closeConn()
}

func (r *streamRun) closeConn() {
	r.closeOnce.Do(func() {
		if err := r.units.Close(); err != nil {
			slog.Debug("connection close returned error", "error", err)
		}
	})
}

// shutdown stops both units and waits until they have returned.
func (r *streamRun) shutdown() {
	r.cancel()
	r.closeConn()
	<-r.done
}
