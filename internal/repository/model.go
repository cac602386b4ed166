package repository

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one transcription of one audio source.
type Run struct {
	ID              string
	SourcePath      string
	Backend         string
	StartedAt       time.Time
	EndedAt         *time.Time
	Status          RunStatus
	ErrorMessage    string
	AudioDurationMs int64
	SubtitleCount   int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type SubtitleRecord struct {
	ID        string
	RunID     string
	SeqID     int
	StartMs   int64
	EndMs     int64
	Text      string
	CreatedAt time.Time
}
