package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Env:                   "development",
		TranscriberBackend:    BackendOpenAIRealtime,
		OpenAIAPIKey:          "sk-test",
		OpenAIRealtimeURL:     "wss://api.openai.com/v1/realtime?model=gpt-realtime-mini-2025-10-06",
		OpenAITranscribeModel: "whisper-1",
		VADThreshold:          0.3,
		VADPrefixPaddingMs:    500,
		VADSilenceDurationMs:  1000,
		AudioFrameMs:          20,
		AudioSendIntervalMs:   1,
		StreamPollIntervalMs:  500,
		StreamTailIdleSec:     10,
		DialTimeoutSec:        15,
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_MissingAPIKeyOnlyFailsTranscriberCheck(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAIAPIKey = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected export-level config to stay valid, got %v", err)
	}
	if err := cfg.ValidateTranscriber(); err == nil {
		t.Fatal("expected error when OPENAI_API_KEY is missing")
	}
}

func TestValidateTranscriber_Valid(t *testing.T) {
	if err := validConfig().ValidateTranscriber(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateTranscriber_GoogleBackendDoesNotNeedOpenAIKey(t *testing.T) {
	cfg := validConfig()
	cfg.TranscriberBackend = BackendGoogleCloudSpeech
	cfg.OpenAIAPIKey = ""
	cfg.GoogleCloudProjectID = "project-id"
	cfg.GoogleCloudCredentialsJSON = `{"type":"service_account"}`
	cfg.GoogleCloudSpeechLocation = "asia-northeast1"
	cfg.GoogleCloudSpeechLanguage = "ja-JP"
	if err := cfg.ValidateTranscriber(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	cfg.GoogleCloudCredentialsJSON = ""
	if err := cfg.ValidateTranscriber(); err == nil {
		t.Fatal("expected error when GOOGLE_CLOUD_CREDENTIALS_JSON is missing")
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := validConfig()
	cfg.TranscriberBackend = "local-whisper"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestValidate_InvalidVADThreshold(t *testing.T) {
	cfg := validConfig()
	cfg.VADThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range VAD threshold")
	}
}

func TestValidate_InvalidFrameDuration(t *testing.T) {
	cfg := validConfig()
	cfg.AudioFrameMs = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive frame duration")
	}
}

func TestValidate_DiscordPair(t *testing.T) {
	cfg := validConfig()
	cfg.DiscordToken = "token"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when DISCORD_CHANNEL_ID is missing")
	}
	cfg.DiscordChannelID = "channel"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestDurations(t *testing.T) {
	cfg := validConfig()
	if got := cfg.FrameDuration(); got != 20*time.Millisecond {
		t.Fatalf("unexpected frame duration: %v", got)
	}
	if got := cfg.PollInterval(); got != 500*time.Millisecond {
		t.Fatalf("unexpected poll interval: %v", got)
	}
	if got := cfg.TailIdleTimeout(); got != 10*time.Second {
		t.Fatalf("unexpected tail idle timeout: %v", got)
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development mode")
	}
	cfg.Env = "production"
	if cfg.IsDevelopment() {
		t.Fatal("expected non-development mode")
	}
}
