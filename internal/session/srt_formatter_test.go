package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/foxseedlab/jimakun/internal/repository"
	"github.com/foxseedlab/jimakun/internal/transcriber"
	"github.com/foxseedlab/jimakun/internal/webhook"
)

func TestBuildSRT(t *testing.T) {
	subs := []transcriber.Subtitle{
		{ID: 1, Start: 0, End: 2950 * time.Millisecond, Text: "hello world"},
		{ID: 2, Start: 61*time.Minute + 5*time.Second + 7*time.Millisecond, End: 61*time.Minute + 7*time.Second, Text: "こんにちは"},
	}
	want := "1\n00:00:00,000 --> 00:00:02,950\nhello world\n\n" +
		"2\n01:01:05,007 --> 01:01:07,000\nこんにちは\n\n"
	if got := string(BuildSRT(subs)); got != want {
		t.Fatalf("unexpected srt:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildSRT_Empty(t *testing.T) {
	if got := BuildSRT(nil); len(got) != 0 {
		t.Fatalf("expected empty document, got %q", got)
	}
}

func TestFormatSRTTime_TruncatesSubMillisecond(t *testing.T) {
	if got := formatSRTTime(1999*time.Microsecond + 999*time.Nanosecond); got != "00:00:00,001" {
		t.Fatalf("unexpected time: %s", got)
	}
	if got := formatSRTTime(-time.Second); got != "00:00:00,000" {
		t.Fatalf("expected negative durations to clamp, got %s", got)
	}
}

func TestSRTFilename(t *testing.T) {
	cases := map[string]string{
		"/data/talk.wav":   "talk.srt",
		"lecture.v2.wav":   "lecture.v2.srt",
		"no_extension":     "no_extension.srt",
		"/tmp/dir/.hidden": "subtitles.srt",
	}
	for in, want := range cases {
		if got := srtFilename(in); got != want {
			t.Fatalf("srtFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildSubtitleWebhookPayload(t *testing.T) {
	started := time.Date(2026, 2, 28, 12, 0, 0, 0, time.FixedZone("JST", 9*3600))
	run := &repository.Run{ID: "run-1", SourcePath: "talk.wav", Backend: "openai-realtime", StartedAt: started, AudioDurationMs: 3000}
	subs := []transcriber.Subtitle{{ID: 1, Start: 0, End: 2950 * time.Millisecond, Text: "hello world"}}

	payload := buildSubtitleWebhookPayload(run, repository.RunStatusFailed, errors.New("boom"), started.Add(time.Minute), subs, BuildSRT(subs))
	if payload.SchemaVersion != webhook.SubtitleWebhookSchemaVersion {
		t.Fatalf("unexpected schema version: %d", payload.SchemaVersion)
	}
	if payload.Status != "failed" || payload.Error != "boom" {
		t.Fatalf("unexpected status: %s / %s", payload.Status, payload.Error)
	}
	if payload.StartedAt.Location() != time.UTC {
		t.Fatalf("expected utc timestamps, got %v", payload.StartedAt.Location())
	}
	if len(payload.Subtitles) != 1 || payload.Subtitles[0].EndMs != 2950 {
		t.Fatalf("unexpected subtitles: %+v", payload.Subtitles)
	}
	if !strings.HasPrefix(payload.SRT, "1\n00:00:00,000 --> 00:00:02,950") {
		t.Fatalf("unexpected srt: %q", payload.SRT)
	}
}

func TestRunSummaryMessage(t *testing.T) {
	ok := runSummaryMessage("/data/talk.wav", 75*time.Second, 3, nil, false)
	if !strings.Contains(ok, messageRunCompletedTitle) || !strings.Contains(ok, "ファイル：talk.wav") || !strings.Contains(ok, "00:01:15") {
		t.Fatalf("unexpected completed message: %s", ok)
	}

	failed := runSummaryMessage("talk.wav", time.Second, 1, errors.New("send audio chunk 61: broken pipe"), false)
	if !strings.Contains(failed, messageRunFailedTitle) || !strings.Contains(failed, "broken pipe") || !strings.Contains(failed, messagePartialAttachment) {
		t.Fatalf("unexpected failed message: %s", failed)
	}

	empty := runSummaryMessage("talk.wav", time.Second, 0, nil, false)
	if !strings.Contains(empty, messageNoSubtitles) {
		t.Fatalf("expected no-subtitles hint: %s", empty)
	}

	canceled := runSummaryMessage("talk.wav", time.Second, 0, errors.New("context canceled"), true)
	if !strings.Contains(canceled, messageRunCanceledTitle) || strings.Contains(canceled, "エラー：") {
		t.Fatalf("unexpected canceled message: %s", canceled)
	}
}
