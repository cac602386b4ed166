package webhook

import (
	"context"
	"time"
)

const SubtitleWebhookSchemaVersion = 1

type SubtitleWebhookPayload struct {
	SchemaVersion   int                    `json:"schema_version"`
	RunID           string                 `json:"run_id"`
	Source          string                 `json:"source"`
	Backend         string                 `json:"backend"`
	Status          string                 `json:"status"`
	Error           string                 `json:"error,omitempty"`
	StartedAt       time.Time              `json:"started_at"`
	EndedAt         time.Time              `json:"ended_at"`
	AudioDurationMs int64                  `json:"audio_duration_ms"`
	Subtitles       []SubtitleWebhookEntry `json:"subtitles"`
	SRT             string                 `json:"srt"`
}

type SubtitleWebhookEntry struct {
	ID      int    `json:"id"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

type Sender interface {
	SendSubtitles(ctx context.Context, payload SubtitleWebhookPayload) error
}
