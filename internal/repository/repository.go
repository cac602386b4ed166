package repository

import (
	"context"
	"errors"
	"time"
)

var ErrRunNotFound = errors.New("run not found")

type CreateRunInput struct {
	SourcePath      string
	Backend         string
	AudioDurationMs int64
	StartedAt       time.Time
}

type FinishRunInput struct {
	RunID         string
	EndedAt       time.Time
	Status        RunStatus
	ErrorMessage  string
	SubtitleCount int
}

type InsertSubtitleInput struct {
	RunID   string
	SeqID   int
	StartMs int64
	EndMs   int64
	Text    string
}

type RunRepository interface {
	CreateRun(ctx context.Context, input CreateRunInput) (*Run, error)
	FinishRun(ctx context.Context, input FinishRunInput) error
	GetRun(ctx context.Context, runID string) (*Run, error)
}

type SubtitleRepository interface {
	InsertSubtitle(ctx context.Context, input InsertSubtitleInput) error
	ListSubtitlesByRunID(ctx context.Context, runID string) ([]SubtitleRecord, error)
}

type Repository interface {
	RunRepository
	SubtitleRepository
}
