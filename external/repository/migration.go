package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE run_status AS ENUM ('running', 'completed', 'failed'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS transcription_runs (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		source_path TEXT NOT NULL,
		backend TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		status run_status NOT NULL DEFAULT 'running',
		error_message TEXT NOT NULL DEFAULT '',
		audio_duration_ms BIGINT NOT NULL DEFAULT 0,
		subtitle_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transcription_runs_running ON transcription_runs (started_at) WHERE status = 'running'`,
	`CREATE TABLE IF NOT EXISTS subtitles (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		run_id UUID NOT NULL REFERENCES transcription_runs(id) ON DELETE CASCADE,
		seq_id INTEGER NOT NULL,
		start_ms BIGINT NOT NULL,
		end_ms BIGINT NOT NULL,
		text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(run_id, seq_id),
		CHECK (end_ms > start_ms)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subtitles_run ON subtitles (run_id, seq_id)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
