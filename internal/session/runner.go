package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/discord"
	"github.com/foxseedlab/jimakun/internal/repository"
	"github.com/foxseedlab/jimakun/internal/transcriber"
	"github.com/foxseedlab/jimakun/internal/webhook"
)

const finalizeTimeout = 30 * time.Second

// Runner drives one audio file through the transcriber and records the
// outcome.
type Runner struct {
	cfg         *config.Config
	repo        repository.Repository
	opener      audio.Opener
	transcriber transcriber.Transcriber
	discord     discord.Client
	webhook     webhook.Sender
	now         func() time.Time
}

type Result struct {
	RunID     string
	Status    repository.RunStatus
	Subtitles []transcriber.Subtitle
	SRT       []byte
}

func NewRunner(cfg *config.Config, repo repository.Repository, opener audio.Opener, stt transcriber.Transcriber, dc discord.Client, wh webhook.Sender) *Runner {
	return &Runner{
		cfg:         cfg,
		repo:        repo,
		opener:      opener,
		transcriber: stt,
		discord:     dc,
		webhook:     wh,
		now:         time.Now,
	}
}

// Transcribe streams the audio at path and calls onSubtitle, if set, for each
// subtitle as it arrives. On failure the returned Result still holds every
// subtitle delivered before the error.
func (r *Runner) Transcribe(ctx context.Context, path string, onSubtitle func(transcriber.Subtitle)) (*Result, error) {
	src, err := r.opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer func() {
		_ = src.Close()
	}()

	startedAt := r.now()
	run, err := r.repo.CreateRun(ctx, repository.CreateRunInput{
		SourcePath:      path,
		Backend:         r.cfg.TranscriberBackend,
		AudioDurationMs: src.Duration().Milliseconds(),
		StartedAt:       startedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	slog.Info("transcription run started",
		"run_id", run.ID,
		"source", path,
		"backend", run.Backend,
		"audio_sec", src.Duration().Seconds())

	var subs []transcriber.Subtitle
	var runErr error
	for sub, err := range r.transcriber.StreamTranscription(ctx, src) {
		if err != nil {
			runErr = err
			break
		}
		subs = append(subs, sub)
		r.storeSubtitle(ctx, run.ID, sub)
		if onSubtitle != nil {
			onSubtitle(sub)
		}
	}

	result := &Result{
		RunID:     run.ID,
		Status:    repository.RunStatusCompleted,
		Subtitles: subs,
		SRT:       BuildSRT(subs),
	}
	if runErr != nil {
		result.Status = repository.RunStatusFailed
	}
	r.finalize(ctx, run, src.Duration(), result, runErr)

	if runErr != nil {
		return result, fmt.Errorf("transcribe %s: %w", path, runErr)
	}
	return result, nil
}

func (r *Runner) storeSubtitle(ctx context.Context, runID string, sub transcriber.Subtitle) {
	if err := r.repo.InsertSubtitle(ctx, subtitleRecordInput(runID, sub)); err != nil {
		slog.Error("failed to store subtitle", "error", err, "run_id", runID, "subtitle_id", sub.ID)
	}
}

// subtitleRecordInput keeps end_ms > start_ms after millisecond truncation.
func subtitleRecordInput(runID string, sub transcriber.Subtitle) repository.InsertSubtitleInput {
	startMs := sub.Start.Milliseconds()
	return repository.InsertSubtitleInput{
		RunID:   runID,
		SeqID:   sub.ID,
		StartMs: startMs,
		EndMs:   max(sub.End.Milliseconds(), startMs+1),
		Text:    sub.Text,
	}
}

// finalize records the outcome and fans it out. Its own failures are logged
// and never replace the run error.
func (r *Runner) finalize(ctx context.Context, run *repository.Run, audioDuration time.Duration, result *Result, runErr error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	endedAt := r.now()
	var errText string
	if runErr != nil {
		errText = runErr.Error()
	}
	if err := r.repo.FinishRun(ctx, repository.FinishRunInput{
		RunID:         run.ID,
		EndedAt:       endedAt,
		Status:        result.Status,
		ErrorMessage:  errText,
		SubtitleCount: len(result.Subtitles),
	}); err != nil {
		slog.Error("failed to finish run", "error", err, "run_id", run.ID)
	}

	logArgs := []any{
		"run_id", run.ID,
		"status", result.Status,
		"subtitles", len(result.Subtitles),
		"elapsed_sec", endedAt.Sub(run.StartedAt).Seconds(),
	}
	if runErr != nil {
		slog.Error("transcription run failed", append(logArgs, "error", runErr)...)
	} else {
		slog.Info("transcription run completed", logArgs...)
	}

	r.notifyDiscord(run, audioDuration, result, runErr)
	if err := r.webhook.SendSubtitles(ctx, buildSubtitleWebhookPayload(run, result.Status, runErr, endedAt, result.Subtitles, result.SRT)); err != nil {
		slog.Error("failed to send subtitle webhook", "error", err, "run_id", run.ID)
	}
}

func (r *Runner) notifyDiscord(run *repository.Run, audioDuration time.Duration, result *Result, runErr error) {
	if !r.discord.Enabled() {
		return
	}
	channelID := r.cfg.DiscordChannelID
	canceled := errors.Is(runErr, context.Canceled)
	content := runSummaryMessage(run.SourcePath, audioDuration, len(result.Subtitles), runErr, canceled)

	var err error
	if len(result.Subtitles) == 0 {
		err = r.discord.SendChannelMessage(channelID, content)
	} else {
		err = r.discord.SendChannelMessageWithFile(discord.FileMessage{
			ChannelID: channelID,
			Content:   content,
			Filename:  srtFilename(run.SourcePath),
			FileBody:  result.SRT,
		})
	}
	if err != nil {
		slog.Error("failed to post subtitles to discord", "error", err, "run_id", run.ID, "channel_id", channelID)
		return
	}
	slog.Info("posted subtitles to discord", "run_id", run.ID, "channel", r.discord.ChannelName(channelID))
}

// ExportSRT rebuilds the SubRip document of a stored run.
func (r *Runner) ExportSRT(ctx context.Context, runID string) (*repository.Run, []byte, error) {
	run, err := r.repo.GetRun(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	records, err := r.repo.ListSubtitlesByRunID(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("list subtitles of run %s: %w", runID, err)
	}
	subs := make([]transcriber.Subtitle, 0, len(records))
	for _, rec := range records {
		subs = append(subs, transcriber.Subtitle{
			ID:    rec.SeqID,
			Start: time.Duration(rec.StartMs) * time.Millisecond,
			End:   time.Duration(rec.EndMs) * time.Millisecond,
			Text:  rec.Text,
		})
	}
	return run, BuildSRT(subs), nil
}
