package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

type pendingUtterance struct {
	start      time.Duration
	startChunk int64
	text       strings.Builder
}

// eventReceiver rebuilds subtitles from transcription events. The pending
// table and the segment builder belong to the goroutine running run.
type eventReceiver struct {
	conn     Conn
	progress *SendProgress
	builder  *SegmentBuilder
	pending  map[string]*pendingUtterance

	pendingCount atomic.Int64
	lastActivity atomic.Int64
}

func newEventReceiver(conn Conn, progress *SendProgress) *eventReceiver {
	r := &eventReceiver{
		conn:     conn,
		progress: progress,
		builder:  NewSegmentBuilder(),
		pending:  make(map[string]*pendingUtterance),
	}
	r.lastActivity.Store(time.Now().UnixNano())
	return r
}

func (r *eventReceiver) run(_ context.Context, emit func(Subtitle)) error {
	defer r.discardPending()
	for {
		msg, err := r.conn.Receive()
		if err != nil {
			if errors.Is(err, ErrConnClosed) {
				return nil
			}
			return fmt.Errorf("receive transcription event: %w", err)
		}
		r.lastActivity.Store(time.Now().UnixNano())

		var ev serverEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			slog.Debug("skipping malformed server event", "error", err, "message_bytes", len(msg))
			continue
		}
		if sub, ok := r.handle(ev); ok {
			emit(sub)
		}
	}
}

func (r *eventReceiver) handle(ev serverEvent) (Subtitle, bool) {
	switch ev.Type {
	case eventTranscriptionDelta:
		r.onDelta(ev)
	case eventTranscriptionCompleted:
		return r.onCompleted(ev)
	case eventTranscriptionFailed:
		r.onFailed(ev)
	case eventError:
		var errType, code, message string
		if ev.Error != nil {
			errType, code, message = ev.Error.Type, ev.Error.Code, ev.Error.Message
		}
		slog.Warn("realtime api reported an error", "error_type", errType, "error_code", code, "error_message", message)
	case eventSessionCreated, eventSessionUpdated:
		slog.Debug("realtime session event", "type", ev.Type)
	}
	return Subtitle{}, false
}

func (r *eventReceiver) onDelta(ev serverEvent) {
	u, ok := r.pending[ev.ItemID]
	if !ok {
		u = &pendingUtterance{start: r.fallbackStart(), startChunk: r.progress.ChunksSent()}
		r.pending[ev.ItemID] = u
		r.pendingCount.Add(1)
	}
	u.text.WriteString(ev.Delta)
}

// fallbackStart is the audio already sent, or the previous subtitle's end
// before the first chunk went out.
func (r *eventReceiver) fallbackStart() time.Duration {
	if cursor, ok := r.progress.Cursor(); ok {
		return cursor
	}
	return r.builder.LastEnd()
}

func (r *eventReceiver) onCompleted(ev serverEvent) (Subtitle, bool) {
	u, hasPending := r.pending[ev.ItemID]
	if hasPending {
		delete(r.pending, ev.ItemID)
		r.pendingCount.Add(-1)
	}

	var text string
	if t := ev.transcript(); t != nil {
		text = *t
	} else if hasPending {
		text = u.text.String()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		slog.Debug("dropping empty transcription", "item_id", ev.ItemID)
		return Subtitle{}, false
	}

	explicitStart, hasStart := ev.audioStart()
	explicitEnd, hasEnd := ev.audioEnd()

	var start, end time.Duration
	if hasStart && hasEnd {
		start, end = explicitStart, explicitEnd
	} else {
		switch {
		case hasPending:
			start = u.start
		case hasStart:
			start = explicitStart
		default:
			start = r.builder.LastEnd()
		}
		if hasEnd {
			end = explicitEnd
		} else if cursor, ok := r.progress.Cursor(); ok {
			end = cursor
		} else {
			end = start + EstimateDuration(text)
		}
	}

	sub := r.builder.Build(start, end, text)
	slog.Info("subtitle emitted",
		"id", sub.ID,
		"item_id", ev.ItemID,
		"start_sec", sub.Start.Seconds(),
		"end_sec", sub.End.Seconds(),
		"chars", len([]rune(sub.Text)))
	return sub, true
}

func (r *eventReceiver) onFailed(ev serverEvent) {
	var buffered int
	if u, ok := r.pending[ev.ItemID]; ok {
		buffered = u.text.Len()
		delete(r.pending, ev.ItemID)
		r.pendingCount.Add(-1)
	}
	var errType, code, message string
	if ev.Error != nil {
		errType, code, message = ev.Error.Type, ev.Error.Code, ev.Error.Message
	}
	slog.Warn("transcription failed for item",
		"item_id", ev.ItemID,
		"buffered_chars", buffered,
		"error_type", errType,
		"error_code", code,
		"error_message", message)
}

func (r *eventReceiver) discardPending() {
	for id, u := range r.pending {
		slog.Debug("discarding unfinished utterance", "item_id", id, "start_chunk", u.startChunk, "buffered_chars", u.text.Len())
		delete(r.pending, id)
	}
	r.pendingCount.Store(0)
}

// activity reports the last inbound message time and how many utterances are
// still open. Safe to call from other goroutines.
func (r *eventReceiver) activity() (time.Time, int) {
	return time.Unix(0, r.lastActivity.Load()), int(r.pendingCount.Load())
}
