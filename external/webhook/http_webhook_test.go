package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foxseedlab/jimakun/internal/webhook"
)

func testPayload() webhook.SubtitleWebhookPayload {
	return webhook.SubtitleWebhookPayload{
		SchemaVersion: webhook.SubtitleWebhookSchemaVersion,
		RunID:         "run-1",
		Source:        "talk.wav",
		Status:        "completed",
		Subtitles: []webhook.SubtitleWebhookEntry{
			{ID: 1, StartMs: 0, EndMs: 2950, Text: "hello world"},
		},
		SRT: "1\n00:00:00,000 --> 00:00:02,950\nhello world\n\n",
	}
}

func TestSendSubtitles_EmptyWebhookURL(t *testing.T) {
	sender := NewHTTPSender("")
	if err := sender.SendSubtitles(context.Background(), testPayload()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSendSubtitles_Success(t *testing.T) {
	var got webhook.SubtitleWebhookPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendSubtitles(context.Background(), testPayload()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.SchemaVersion != webhook.SubtitleWebhookSchemaVersion || got.RunID != "run-1" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if len(got.Subtitles) != 1 || got.Subtitles[0].EndMs != 2950 {
		t.Fatalf("unexpected subtitles: %+v", got.Subtitles)
	}
	if got.SRT == "" {
		t.Fatal("expected srt body")
	}
}

func TestSendSubtitles_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendSubtitles(context.Background(), testPayload()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
