package transcriber

import (
	"fmt"

	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		c := do.MustInvoke[*config.Config](i)
		switch c.TranscriberBackend {
		case config.BackendOpenAIRealtime:
			return NewRealtimeTranscriber(RealtimeConfig{
				APIKey: c.OpenAIAPIKey,
				URL:    c.OpenAIRealtimeURL,
				Session: transcriber.SessionConfig{
					Model:             c.OpenAITranscribeModel,
					VADThreshold:      c.VADThreshold,
					PrefixPaddingMs:   c.VADPrefixPaddingMs,
					SilenceDurationMs: c.VADSilenceDurationMs,
				},
				FrameDuration:   c.FrameDuration(),
				SendInterval:    c.SendInterval(),
				PollInterval:    c.PollInterval(),
				TailIdleTimeout: c.TailIdleTimeout(),
				DialTimeout:     c.DialTimeout(),
			}), nil
		case config.BackendGoogleCloudSpeech:
			return NewCloudSpeechTranscriber(CloudSpeechConfig{
				ProjectID:       c.GoogleCloudProjectID,
				CredentialsJSON: c.GoogleCloudCredentialsJSON,
				Language:        c.GoogleCloudSpeechLanguage,
				Location:        c.GoogleCloudSpeechLocation,
				Model:           c.GoogleCloudSpeechModel,
				FrameDuration:   c.FrameDuration(),
				SendInterval:    c.SendInterval(),
				PollInterval:    c.PollInterval(),
				TailIdleTimeout: c.TailIdleTimeout(),
			}), nil
		default:
			return nil, fmt.Errorf("unknown transcriber backend %q", c.TranscriberBackend)
		}
	})
}
