package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/foxseedlab/jimakun/internal/transcriber"
	"github.com/gorilla/websocket"
)

type memSource struct {
	*bytes.Reader
	format audio.Format
}

func newMemSource(format audio.Format, d time.Duration) *memSource {
	size := format.FrameBytes(d)
	return &memSource{Reader: bytes.NewReader(make([]byte, size)), format: format}
}

func (s *memSource) Format() audio.Format { return s.format }

func (s *memSource) Duration() time.Duration { return s.format.Duration(s.Size()) }

func (s *memSource) Close() error { return nil }

type realtimeServerResult struct {
	auth    string
	beta    string
	types   []string
	appends int
}

func newRealtimeServer(t *testing.T, results chan<- realtimeServerResult) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		res := realtimeServerResult{auth: r.Header.Get("Authorization"), beta: r.Header.Get("OpenAI-Beta")}
		defer func() { results <- res }()
		_ = conn.WriteJSON(map[string]any{"type": "session.created", "session": map[string]any{}})
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ev struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg, &ev); err != nil {
				return
			}
			res.types = append(res.types, ev.Type)
			switch ev.Type {
			case "input_audio_buffer.append":
				res.appends++
			case "input_audio_buffer.commit":
				_ = conn.WriteJSON(map[string]any{
					"type":    "conversation.item.input_audio_transcription.completed",
					"item_id": "item_1",
					"item":    map[string]any{"transcript": "こんにちは", "audio_start_ms": 0, "audio_end_ms": 950},
				})
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testRealtimeConfig(url, key string) RealtimeConfig {
	return RealtimeConfig{
		APIKey:        key,
		URL:           url,
		Session:       transcriber.SessionConfig{Model: "whisper-1", VADThreshold: 0.3, PrefixPaddingMs: 500, SilenceDurationMs: 1000},
		FrameDuration: 20 * time.Millisecond,
		PollInterval:  10 * time.Millisecond,
		DialTimeout:   5 * time.Second,
	}
}

func TestRealtimeTranscriber_StreamsOverWebsocket(t *testing.T) {
	results := make(chan realtimeServerResult, 1)
	srv := newRealtimeServer(t, results)
	defer srv.Close()

	tr := NewRealtimeTranscriber(testRealtimeConfig(wsURL(srv), "test-key"))
	var subs []transcriber.Subtitle
	for sub, err := range tr.StreamTranscription(context.Background(), newMemSource(audio.RealtimeFormat, time.Second)) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		subs = append(subs, sub)
	}

	want := transcriber.Subtitle{ID: 1, Start: 0, End: 950 * time.Millisecond, Text: "こんにちは"}
	if len(subs) != 1 || subs[0] != want {
		t.Fatalf("expected %+v, got %+v", want, subs)
	}

	var res realtimeServerResult
	select {
	case res = <-results:
	case <-time.After(5 * time.Second):
		t.Fatal("server handler did not finish")
	}
	if res.beta != "realtime=v1" {
		t.Fatalf("expected beta header, got %q", res.beta)
	}
	if len(res.types) == 0 || res.types[0] != "session.update" {
		t.Fatalf("expected session.update first, got %v", res.types)
	}
	if res.appends != 50 {
		t.Fatalf("expected 50 appended frames, got %d", res.appends)
	}
}

func TestRealtimeTranscriber_RejectedHandshake(t *testing.T) {
	results := make(chan realtimeServerResult, 1)
	srv := newRealtimeServer(t, results)
	defer srv.Close()

	tr := NewRealtimeTranscriber(testRealtimeConfig(wsURL(srv), "wrong-key"))
	var errs []error
	for _, err := range tr.StreamTranscription(context.Background(), newMemSource(audio.RealtimeFormat, time.Second)) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
	if !strings.Contains(errs[0].Error(), "dial realtime api") || !strings.Contains(errs[0].Error(), "401") {
		t.Fatalf("unexpected error: %v", errs[0])
	}
}

func TestRealtimeTranscriber_MissingAPIKey(t *testing.T) {
	tr := NewRealtimeTranscriber(testRealtimeConfig("ws://127.0.0.1:1", " "))
	for _, err := range tr.StreamTranscription(context.Background(), newMemSource(audio.RealtimeFormat, time.Second)) {
		if !errors.Is(err, transcriber.ErrMissingAPIKey) {
			t.Fatalf("expected ErrMissingAPIKey, got %v", err)
		}
	}
}

func TestRealtimeTranscriber_RejectsOtherFormats(t *testing.T) {
	tr := NewRealtimeTranscriber(testRealtimeConfig("ws://127.0.0.1:1", "test-key"))
	stereo := audio.Format{SampleRate: 48000, Channels: 2, BytesPerSample: 2}
	var got error
	for _, err := range tr.StreamTranscription(context.Background(), newMemSource(stereo, time.Second)) {
		got = err
	}
	if !errors.Is(got, audio.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", got)
	}
}

func TestWSConn_CloseUnblocksReceive(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	conn, err := dialRealtime(context.Background(), wsURL(srv), "test-key", 5*time.Second)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	errCh := make(chan error, 1)
	go func() {
		_, err := conn.Receive()
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)
	if err := conn.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, transcriber.ErrConnClosed) {
			t.Fatalf("expected ErrConnClosed, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("receive did not unblock after close")
	}
	if err := conn.Send(map[string]string{"type": "input_audio_buffer.commit"}); !errors.Is(err, transcriber.ErrConnClosed) {
		t.Fatalf("expected ErrConnClosed from send after close, got %v", err)
	}
}
