package transcriber

import (
	"math"
	"time"
)

const (
	eventSessionUpdate          = "session.update"
	eventInputAudioAppend       = "input_audio_buffer.append"
	eventInputAudioCommit       = "input_audio_buffer.commit"
	eventSessionCreated         = "session.created"
	eventSessionUpdated         = "session.updated"
	eventTranscriptionDelta     = "conversation.item.input_audio_transcription.delta"
	eventTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"
	eventTranscriptionFailed    = "conversation.item.input_audio_transcription.failed"
	eventError                  = "error"
)

type SessionConfig struct {
	Model             string
	VADThreshold      float64
	PrefixPaddingMs   int
	SilenceDurationMs int
}

type sessionUpdateEvent struct {
	Type    string        `json:"type"`
	Session sessionParams `json:"session"`
}

type sessionParams struct {
	InputAudioFormat        string              `json:"input_audio_format"`
	InputAudioTranscription transcriptionParams `json:"input_audio_transcription"`
	TurnDetection           turnDetectionParams `json:"turn_detection"`
}

type transcriptionParams struct {
	Model string `json:"model"`
}

type turnDetectionParams struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
}

func newSessionUpdate(cfg SessionConfig) sessionUpdateEvent {
	return sessionUpdateEvent{
		Type: eventSessionUpdate,
		Session: sessionParams{
			InputAudioFormat:        "pcm16",
			InputAudioTranscription: transcriptionParams{Model: cfg.Model},
			TurnDetection: turnDetectionParams{
				Type:              "server_vad",
				Threshold:         cfg.VADThreshold,
				PrefixPaddingMs:   cfg.PrefixPaddingMs,
				SilenceDurationMs: cfg.SilenceDurationMs,
			},
		},
	}
}

type appendAudioEvent struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type commitAudioEvent struct {
	Type string `json:"type"`
}

type serverEvent struct {
	Type       string       `json:"type"`
	ItemID     string       `json:"item_id"`
	Delta      string       `json:"delta"`
	Transcript *string      `json:"transcript"`
	Item       *serverItem  `json:"item"`
	Error      *serverError `json:"error"`
}

type serverItem struct {
	Transcript   *string  `json:"transcript"`
	AudioStartMs *float64 `json:"audio_start_ms"`
	AudioEndMs   *float64 `json:"audio_end_ms"`
}

type serverError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// transcript prefers item.transcript over the top-level field; nil means the
// service omitted it.
func (e serverEvent) transcript() *string {
	if e.Item != nil && e.Item.Transcript != nil {
		return e.Item.Transcript
	}
	return e.Transcript
}

func (e serverEvent) audioStart() (time.Duration, bool) {
	if e.Item == nil || e.Item.AudioStartMs == nil {
		return 0, false
	}
	return msToDuration(*e.Item.AudioStartMs), true
}

func (e serverEvent) audioEnd() (time.Duration, bool) {
	if e.Item == nil || e.Item.AudioEndMs == nil {
		return 0, false
	}
	return msToDuration(*e.Item.AudioEndMs), true
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}
