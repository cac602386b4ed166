package session

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/foxseedlab/jimakun/internal/repository"
	"github.com/foxseedlab/jimakun/internal/transcriber"
	"github.com/foxseedlab/jimakun/internal/webhook"
)

// BuildSRT renders subtitles as a SubRip document, numbering cues from 1 in
// the order given.
func BuildSRT(subs []transcriber.Subtitle) []byte {
	var b strings.Builder
	for i, sub := range subs {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, formatSRTTime(sub.Start), formatSRTTime(sub.End), sub.Text)
	}
	return []byte(b.String())
}

func formatSRTTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := d.Milliseconds()
	h := total / 3_600_000
	m := (total % 3_600_000) / 60_000
	s := (total % 60_000) / 1000
	ms := total % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func formatElapsedHMS(d time.Duration) string {
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func srtFilename(sourcePath string) string {
	base := filepath.Base(sourcePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "subtitles"
	}
	return name + ".srt"
}

func buildSubtitleWebhookPayload(run *repository.Run, status repository.RunStatus, runErr error, endedAt time.Time, subs []transcriber.Subtitle, srt []byte) webhook.SubtitleWebhookPayload {
	entries := make([]webhook.SubtitleWebhookEntry, 0, len(subs))
	for _, sub := range subs {
		entries = append(entries, webhook.SubtitleWebhookEntry{
			ID:      sub.ID,
			StartMs: sub.Start.Milliseconds(),
			EndMs:   sub.End.Milliseconds(),
			Text:    sub.Text,
		})
	}
	var errText string
	if runErr != nil {
		errText = runErr.Error()
	}
	return webhook.SubtitleWebhookPayload{
		SchemaVersion:   webhook.SubtitleWebhookSchemaVersion,
		RunID:           run.ID,
		Source:          run.SourcePath,
		Backend:         run.Backend,
		Status:          string(status),
		Error:           errText,
		StartedAt:       run.StartedAt.UTC(),
		EndedAt:         endedAt.UTC(),
		AudioDurationMs: run.AudioDurationMs,
		Subtitles:       entries,
		SRT:             string(srt),
	}
}
