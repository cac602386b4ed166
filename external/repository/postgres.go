package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foxseedlab/jimakun/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

const runColumns = `id, source_path, backend, started_at, ended_at, status, error_message,
	audio_duration_ms, subtitle_count, created_at, updated_at`

func scanRun(row pgx.Row) (*repository.Run, error) {
	var r repository.Run
	var endedAt *time.Time
	err := row.Scan(&r.ID, &r.SourcePath, &r.Backend, &r.StartedAt, &endedAt, &r.Status, &r.ErrorMessage,
		&r.AudioDurationMs, &r.SubtitleCount, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.EndedAt = endedAt
	return &r, nil
}

func (r *PostgresRepository) CreateRun(ctx context.Context, input repository.CreateRunInput) (*repository.Run, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO transcription_runs (source_path, backend, started_at, audio_duration_ms, status)
		 VALUES ($1, $2, $3, $4, 'running')
		 RETURNING `+runColumns,
		input.SourcePath, input.Backend, input.StartedAt, input.AudioDurationMs)
	run, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

func (r *PostgresRepository) FinishRun(ctx context.Context, input repository.FinishRunInput) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transcription_runs
		 SET status = $2, ended_at = $3, error_message = $4, subtitle_count = $5, updated_at = NOW()
		 WHERE id = $1`,
		input.RunID, input.Status, input.EndedAt, input.ErrorMessage, input.SubtitleCount)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrRunNotFound
	}
	return nil
}

func (r *PostgresRepository) GetRun(ctx context.Context, runID string) (*repository.Run, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, repository.ErrRunNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM transcription_runs WHERE id = $1`, runID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

func (r *PostgresRepository) InsertSubtitle(ctx context.Context, input repository.InsertSubtitleInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO subtitles (run_id, seq_id, start_ms, end_ms, text)
		 VALUES ($1, $2, $3, $4, $5)`,
		input.RunID, input.SeqID, input.StartMs, input.EndMs, input.Text)
	return err
}

func (r *PostgresRepository) ListSubtitlesByRunID(ctx context.Context, runID string) ([]repository.SubtitleRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, run_id, seq_id, start_ms, end_ms, text, created_at
		 FROM subtitles WHERE run_id = $1 ORDER BY seq_id ASC`,
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.SubtitleRecord
	for rows.Next() {
		var rec repository.SubtitleRecord
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.SeqID, &rec.StartMs, &rec.EndMs, &rec.Text, &rec.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
