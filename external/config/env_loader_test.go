package config

import (
	"testing"

	internalconfig "github.com/foxseedlab/jimakun/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.TranscriberBackend != internalconfig.BackendOpenAIRealtime {
		t.Fatalf("unexpected backend: %s", cfg.TranscriberBackend)
	}
	if cfg.OpenAITranscribeModel != "whisper-1" {
		t.Fatalf("unexpected model: %s", cfg.OpenAITranscribeModel)
	}
	if cfg.VADThreshold != 0.3 || cfg.VADPrefixPaddingMs != 500 || cfg.VADSilenceDurationMs != 1000 {
		t.Fatalf("unexpected vad defaults: %+v", cfg)
	}
	if cfg.AudioFrameMs != 20 || cfg.StreamPollIntervalMs != 500 {
		t.Fatalf("unexpected stream defaults: frame=%d poll=%d", cfg.AudioFrameMs, cfg.StreamPollIntervalMs)
	}
	if cfg.IsDevelopment() {
		t.Fatal("expected production by default")
	}
}

func TestLoad_MissingAPIKeyIsCheckedOnlyForTranscription(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected config without OPENAI_API_KEY to load, got %v", err)
	}
	if err := cfg.ValidateTranscriber(); err == nil {
		t.Fatal("expected transcriber check to fail when OPENAI_API_KEY is missing")
	}
}

func TestLoad_InvalidNumber(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AUDIO_FRAME_MS", "twenty")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric AUDIO_FRAME_MS")
	}
}
