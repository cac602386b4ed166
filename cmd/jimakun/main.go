package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	audioimpl "github.com/foxseedlab/jimakun/external/audio"
	configloader "github.com/foxseedlab/jimakun/external/config"
	"github.com/foxseedlab/jimakun/external/discord"
	repositoryimpl "github.com/foxseedlab/jimakun/external/repository"
	transcriberimpl "github.com/foxseedlab/jimakun/external/transcriber"
	webhookimpl "github.com/foxseedlab/jimakun/external/webhook"
	"github.com/foxseedlab/jimakun/internal/config"
	discordpkg "github.com/foxseedlab/jimakun/internal/discord"
	"github.com/foxseedlab/jimakun/internal/session"
	"github.com/foxseedlab/jimakun/internal/transcriber"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jimakun",
		Short: "Generate subtitles from audio with streaming speech recognition",
		Long: `jimakun streams a 16-bit PCM WAV file to a realtime speech recognition service
and turns the transcription events into timed subtitles (SRT).

Configuration is read from the environment. See OPENAI_API_KEY, TRANSCRIBER_BACKEND,
DATABASE_URL, DISCORD_TOKEN/DISCORD_CHANNEL_ID and SUBTITLE_WEBHOOK_URL.`,
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("jimakun v{{.Version}}\n")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(newTranscribeCmd())
	root.AddCommand(newExportCmd())
	return root
}

func newTranscribeCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "transcribe <wavfile>",
		Short: "Transcribe a WAV file and write SRT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := mustLoadConfig()
			initLogger(cfg)
			if err := cfg.ValidateTranscriber(); err != nil {
				return fmt.Errorf("transcriber config: %w", err)
			}
			injector := setupDI(cfg)
			defer shutdown(injector)

			runner, err := do.Invoke[*session.Runner](injector)
			if err != nil {
				return fmt.Errorf("resolve runner: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, runErr := runner.Transcribe(ctx, args[0], func(sub transcriber.Subtitle) {
				slog.Info("subtitle", "id", sub.ID, "start_sec", sub.Start.Seconds(), "end_sec", sub.End.Seconds(), "text", sub.Text)
			})
			if result != nil {
				if err := writeOutput(cmd, outPath, result.SRT); err != nil {
					return err
				}
			}
			return runErr
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write SRT to this file instead of stdout")
	return cmd
}

func newExportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Rebuild the SRT of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := mustLoadConfig()
			initLogger(cfg)
			injector := setupDI(cfg)
			defer shutdown(injector)

			runner, err := do.Invoke[*session.Runner](injector)
			if err != nil {
				return fmt.Errorf("resolve runner: %w", err)
			}
			run, srt, err := runner.ExportSRT(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			slog.Info("exporting run", "run_id", run.ID, "source", run.SourcePath, "status", run.Status, "subtitles", run.SubtitleCount)
			return writeOutput(cmd, outPath, srt)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write SRT to this file instead of stdout")
	return cmd
}

func writeOutput(cmd *cobra.Command, outPath string, srt []byte) error {
	if outPath == "" {
		_, err := cmd.OutOrStdout().Write(srt)
		return err
	}
	if err := os.WriteFile(outPath, srt, 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	slog.Info("srt written", "path", outPath, "bytes", len(srt))
	return nil
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// initLogger writes to stderr; stdout carries the SRT document.
func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	discord.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	session.RegisterDI(injector)

	return injector
}

func shutdown(injector do.Injector) {
	dc, err := do.Invoke[discordpkg.Client](injector)
	if err != nil {
		return
	}
	if err := dc.Close(); err != nil {
		slog.Error("discord close failed", "error", err)
	}
}
