package config

import (
	"fmt"
	"time"
)

const (
	BackendOpenAIRealtime    = "openai-realtime"
	BackendGoogleCloudSpeech = "google-cloud-speech"
)

type Config struct {
	Env                        string
	TranscriberBackend         string
	OpenAIAPIKey               string
	OpenAIRealtimeURL          string
	OpenAITranscribeModel      string
	VADThreshold               float64
	VADPrefixPaddingMs         int
	VADSilenceDurationMs       int
	AudioFrameMs               int
	AudioSendIntervalMs        int
	StreamPollIntervalMs       int
	StreamTailIdleSec          int
	DialTimeoutSec             int
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	GoogleCloudSpeechLanguage  string
	DatabaseURL                string
	DiscordToken               string
	DiscordChannelID           string
	SubtitleWebhookURL         string
}

// Validate checks settings every command depends on. Backend credentials are
// checked separately by ValidateTranscriber, since export never dials.
func (c *Config) Validate() error {
	switch c.TranscriberBackend {
	case BackendOpenAIRealtime, BackendGoogleCloudSpeech:
	default:
		return fmt.Errorf("TRANSCRIBER_BACKEND must be openai-realtime or google-cloud-speech, got %q", c.TranscriberBackend)
	}
	if c.VADThreshold < 0 || c.VADThreshold > 1 {
		return fmt.Errorf("VAD_THRESHOLD must be within [0, 1], got %v", c.VADThreshold)
	}
	if c.VADPrefixPaddingMs < 0 {
		return fmt.Errorf("VAD_PREFIX_PADDING_MS must not be negative, got %d", c.VADPrefixPaddingMs)
	}
	if c.VADSilenceDurationMs <= 0 {
		return fmt.Errorf("VAD_SILENCE_DURATION_MS must be positive, got %d", c.VADSilenceDurationMs)
	}
	if c.AudioFrameMs <= 0 {
		return fmt.Errorf("AUDIO_FRAME_MS must be positive, got %d", c.AudioFrameMs)
	}
	if c.AudioSendIntervalMs < 0 {
		return fmt.Errorf("AUDIO_SEND_INTERVAL_MS must not be negative, got %d", c.AudioSendIntervalMs)
	}
	if c.StreamPollIntervalMs <= 0 {
		return fmt.Errorf("STREAM_POLL_INTERVAL_MS must be positive, got %d", c.StreamPollIntervalMs)
	}
	if c.StreamTailIdleSec < 0 {
		return fmt.Errorf("STREAM_TAIL_IDLE_SEC must not be negative, got %d", c.StreamTailIdleSec)
	}
	if c.DialTimeoutSec <= 0 {
		return fmt.Errorf("DIAL_TIMEOUT_SEC must be positive, got %d", c.DialTimeoutSec)
	}
	if (c.DiscordToken == "") != (c.DiscordChannelID == "") {
		return fmt.Errorf("DISCORD_TOKEN and DISCORD_CHANNEL_ID must be set together")
	}
	return nil
}

// ValidateTranscriber checks the credentials of the selected backend.
func (c *Config) ValidateTranscriber() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	switch c.TranscriberBackend {
	case BackendOpenAIRealtime:
		return []requiredEnvField{
			{name: "OPENAI_API_KEY", value: c.OpenAIAPIKey},
			{name: "OPENAI_REALTIME_URL", value: c.OpenAIRealtimeURL},
			{name: "OPENAI_TRANSCRIBE_MODEL", value: c.OpenAITranscribeModel},
		}
	case BackendGoogleCloudSpeech:
		return []requiredEnvField{
			{name: "GOOGLE_CLOUD_PROJECT_ID", value: c.GoogleCloudProjectID},
			{name: "GOOGLE_CLOUD_CREDENTIALS_JSON", value: c.GoogleCloudCredentialsJSON},
			{name: "GOOGLE_CLOUD_SPEECH_LOCATION", value: c.GoogleCloudSpeechLocation},
			{name: "GOOGLE_CLOUD_SPEECH_LANGUAGE", value: c.GoogleCloudSpeechLanguage},
		}
	default:
		return []requiredEnvField{
			{name: "TRANSCRIBER_BACKEND (openai-realtime or google-cloud-speech)", value: ""},
		}
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) FrameDuration() time.Duration {
	return time.Duration(c.AudioFrameMs) * time.Millisecond
}

func (c *Config) SendInterval() time.Duration {
	return time.Duration(c.AudioSendIntervalMs) * time.Millisecond
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.StreamPollIntervalMs) * time.Millisecond
}

func (c *Config) TailIdleTimeout() time.Duration {
	return time.Duration(c.StreamTailIdleSec) * time.Second
}

func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutSec) * time.Second
}
