package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/foxseedlab/jimakun/internal/repository"
	"github.com/google/uuid"
)

// MemoryRepository keeps runs for the lifetime of the process. It is used
// when no database is configured.
type MemoryRepository struct {
	mu        sync.Mutex
	runs      map[string]*repository.Run
	subtitles map[string][]repository.SubtitleRecord
	now       func() time.Time
}

func NewMemoryRepository() repository.Repository {
	return &MemoryRepository{
		runs:      make(map[string]*repository.Run),
		subtitles: make(map[string][]repository.SubtitleRecord),
		now:       time.Now,
	}
}

func (r *MemoryRepository) CreateRun(_ context.Context, input repository.CreateRunInput) (*repository.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	run := &repository.Run{
		ID:              uuid.NewString(),
		SourcePath:      input.SourcePath,
		Backend:         input.Backend,
		StartedAt:       input.StartedAt,
		Status:          repository.RunStatusRunning,
		AudioDurationMs: input.AudioDurationMs,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.runs[run.ID] = run
	out := *run
	return &out, nil
}

func (r *MemoryRepository) FinishRun(_ context.Context, input repository.FinishRunInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[input.RunID]
	if !ok {
		return repository.ErrRunNotFound
	}
	endedAt := input.EndedAt
	run.EndedAt = &endedAt
	run.Status = input.Status
	run.ErrorMessage = input.ErrorMessage
	run.SubtitleCount = input.SubtitleCount
	run.UpdatedAt = r.now()
	return nil
}

func (r *MemoryRepository) GetRun(_ context.Context, runID string) (*repository.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return nil, repository.ErrRunNotFound
	}
	out := *run
	return &out, nil
}

func (r *MemoryRepository) InsertSubtitle(_ context.Context, input repository.InsertSubtitleInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[input.RunID]; !ok {
		return repository.ErrRunNotFound
	}
	for _, rec := range r.subtitles[input.RunID] {
		if rec.SeqID == input.SeqID {
			return fmt.Errorf("subtitle %d already stored for run %s", input.SeqID, input.RunID)
		}
	}
	r.subtitles[input.RunID] = append(r.subtitles[input.RunID], repository.SubtitleRecord{
		ID:        uuid.NewString(),
		RunID:     input.RunID,
		SeqID:     input.SeqID,
		StartMs:   input.StartMs,
		EndMs:     input.EndMs,
		Text:      input.Text,
		CreatedAt: r.now(),
	})
	return nil
}

func (r *MemoryRepository) ListSubtitlesByRunID(_ context.Context, runID string) ([]repository.SubtitleRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := slices.Clone(r.subtitles[runID])
	slices.SortFunc(list, func(a, b repository.SubtitleRecord) int { return a.SeqID - b.SeqID })
	return list, nil
}
