package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/jimakun/internal/config"
)

type envConfig struct {
	Env                        string  `env:"ENV" envDefault:"production"`
	TranscriberBackend         string  `env:"TRANSCRIBER_BACKEND" envDefault:"openai-realtime"`
	OpenAIAPIKey               string  `env:"OPENAI_API_KEY"`
	OpenAIRealtimeURL          string  `env:"OPENAI_REALTIME_URL" envDefault:"wss://api.openai.com/v1/realtime?model=gpt-realtime-mini-2025-10-06"`
	OpenAITranscribeModel      string  `env:"OPENAI_TRANSCRIBE_MODEL" envDefault:"whisper-1"`
	VADThreshold               float64 `env:"VAD_THRESHOLD" envDefault:"0.3"`
	VADPrefixPaddingMs         int     `env:"VAD_PREFIX_PADDING_MS" envDefault:"500"`
	VADSilenceDurationMs       int     `env:"VAD_SILENCE_DURATION_MS" envDefault:"1000"`
	AudioFrameMs               int     `env:"AUDIO_FRAME_MS" envDefault:"20"`
	AudioSendIntervalMs        int     `env:"AUDIO_SEND_INTERVAL_MS" envDefault:"1"`
	StreamPollIntervalMs       int     `env:"STREAM_POLL_INTERVAL_MS" envDefault:"500"`
	StreamTailIdleSec          int     `env:"STREAM_TAIL_IDLE_SEC" envDefault:"10"`
	DialTimeoutSec             int     `env:"DIAL_TIMEOUT_SEC" envDefault:"15"`
	GoogleCloudProjectID       string  `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string  `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string  `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"asia-northeast1"`
	GoogleCloudSpeechModel     string  `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"chirp_3"`
	GoogleCloudSpeechLanguage  string  `env:"GOOGLE_CLOUD_SPEECH_LANGUAGE" envDefault:"ja-JP"`
	DatabaseURL                string  `env:"DATABASE_URL"`
	DiscordToken               string  `env:"DISCORD_TOKEN"`
	DiscordChannelID           string  `env:"DISCORD_CHANNEL_ID"`
	SubtitleWebhookURL         string  `env:"SUBTITLE_WEBHOOK_URL"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		TranscriberBackend:         raw.TranscriberBackend,
		OpenAIAPIKey:               raw.OpenAIAPIKey,
		OpenAIRealtimeURL:          raw.OpenAIRealtimeURL,
		OpenAITranscribeModel:      raw.OpenAITranscribeModel,
		VADThreshold:               raw.VADThreshold,
		VADPrefixPaddingMs:         raw.VADPrefixPaddingMs,
		VADSilenceDurationMs:       raw.VADSilenceDurationMs,
		AudioFrameMs:               raw.AudioFrameMs,
		AudioSendIntervalMs:        raw.AudioSendIntervalMs,
		StreamPollIntervalMs:       raw.StreamPollIntervalMs,
		StreamTailIdleSec:          raw.StreamTailIdleSec,
		DialTimeoutSec:             raw.DialTimeoutSec,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		GoogleCloudSpeechLanguage:  raw.GoogleCloudSpeechLanguage,
		DatabaseURL:                raw.DatabaseURL,
		DiscordToken:               raw.DiscordToken,
		DiscordChannelID:           raw.DiscordChannelID,
		SubtitleWebhookURL:         raw.SubtitleWebhookURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
