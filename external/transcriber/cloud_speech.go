package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/foxseedlab/jimakun/internal/transcriber"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	speechAPIEndpointPort = 443
	// Cloud Speech caps a single streaming request at 25600 bytes of audio.
	speechMaxChunkDuration = 100 * time.Millisecond
)

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Language        string
	Location        string
	Model           string
	FrameDuration   time.Duration
	SendInterval    time.Duration
	PollInterval    time.Duration
	TailIdleTimeout time.Duration
}

type CloudSpeechTranscriber struct {
	cfg  CloudSpeechConfig
	open func(ctx context.Context) (recognizeStream, func() error, error)
}

// recognizeStream is the subset of the generated streaming client used here.
type recognizeStream interface {
	Send(*speechpb.StreamingRecognizeRequest) error
	Recv() (*speechpb.StreamingRecognizeResponse, error)
	CloseSend() error
}

func NewCloudSpeechTranscriber(cfg CloudSpeechConfig) transcriber.Transcriber {
	cfg.Location = strings.TrimSpace(cfg.Location)
	cfg.Model = strings.TrimSpace(cfg.Model)
	t := &CloudSpeechTranscriber{cfg: cfg}
	t.open = t.openStream
	return t
}

func (t *CloudSpeechTranscriber) openStream(ctx context.Context) (recognizeStream, func() error, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(t.cfg.CredentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("detect credentials: %w", err)
	}

	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if t.cfg.Location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", t.cfg.Location, speechAPIEndpointPort)))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := client.StreamingRecognize(streamCtx)
	if err != nil {
		cancel()
		_ = client.Close()
		return nil, nil, err
	}
	closeFn := func() error {
		cancel()
		return client.Close()
	}
	return stream, closeFn, nil
}

func (t *CloudSpeechTranscriber) recognitionConfig(format audio.Format) *speechpb.StreamingRecognizeRequest {
	recognizer := fmt.Sprintf("projects/%s/locations/%s/recognizers/_", t.cfg.ProjectID, t.cfg.Location)
	return &speechpb.StreamingRecognizeRequest{
		Recognizer: recognizer,
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Model:         t.cfg.Model,
					LanguageCodes: []string{t.cfg.Language},
					DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
						ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
							Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
							SampleRateHertz:   int32(format.SampleRate),
							AudioChannelCount: int32(format.Channels),
						},
					},
					Features: &speechpb.RecognitionFeatures{EnableAutomaticPunctuation: true},
				},
				StreamingFeatures: &speechpb.StreamingRecognitionFeatures{InterimResults: true},
			},
		},
	}
}

func (t *CloudSpeechTranscriber) StreamTranscription(ctx context.Context, src audio.Source) iter.Seq2[transcriber.Subtitle, error] {
	return func(yield func(transcriber.Subtitle, error) bool) {
		format := src.Format()
		if err := format.Validate(); err != nil {
			yield(transcriber.Subtitle{}, fmt.Errorf("cloud speech input: %w", err))
			return
		}
		if format.BytesPerSample != 2 {
			yield(transcriber.Subtitle{}, fmt.Errorf("cloud speech input: %w: %d-bit samples", audio.ErrUnsupportedFormat, format.BytesPerSample*8))
			return
		}

		stream, closeFn, err := t.open(ctx)
		if err != nil {
			yield(transcriber.Subtitle{}, fmt.Errorf("open cloud speech stream: %w", err))
			return
		}
		if err := stream.Send(t.recognitionConfig(format)); err != nil {
			_ = closeFn()
			yield(transcriber.Subtitle{}, fmt.Errorf("configure cloud speech stream: %w", err))
			return
		}
		slog.Info("cloud speech stream initialized",
			"location", t.cfg.Location,
			"model", t.cfg.Model,
			"language", t.cfg.Language,
			"sample_rate", format.SampleRate,
			"channels", format.Channels)

		frameDuration := min(t.cfg.FrameDuration, speechMaxChunkDuration)
		if frameDuration <= 0 {
			frameDuration = speechMaxChunkDuration
		}
		rs := &recognitionSession{
			stream:   stream,
			builder:  transcriber.NewSegmentBuilder(),
			interval: t.cfg.SendInterval,
			frames:   audio.Frames(src, format.FrameBytes(frameDuration)),
		}
		rs.lastActivity.Store(time.Now().UnixNano())

		units := transcriber.Units{
			Send:     rs.send,
			Receive:  rs.receive,
			Close:    closeFn,
			Activity: rs.activity,
		}
		coordinated := transcriber.Coordinate(ctx, units, transcriber.CoordinatorOptions{
			PollInterval:    t.cfg.PollInterval,
			TailIdleTimeout: t.cfg.TailIdleTimeout,
		})
		for sub, err := range coordinated {
			if !yield(sub, err) {
				return
			}
		}
	}
}

type recognitionSession struct {
	stream   recognizeStream
	builder  *transcriber.SegmentBuilder
	interval time.Duration
	frames   iter.Seq2[[]byte, error]

	interim      atomic.Bool
	lastActivity atomic.Int64
}

func (s *recognitionSession) send(ctx context.Context) error {
	var sent int
	for frame, err := range s.frames {
		if err != nil {
			return err
		}
		req := &speechpb.StreamingRecognizeRequest{
			StreamingRequest: &speechpb.StreamingRecognizeRequest_Audio{Audio: frame},
		}
		if err := s.stream.Send(req); err != nil {
			if errors.Is(err, io.EOF) {
				// The server ended the stream; Recv reports why.
				slog.Info("cloud speech stream closed while sending audio", "chunks_sent", sent)
				return nil
			}
			return fmt.Errorf("send audio chunk %d: %w", sent+1, err)
		}
		sent++
		if s.interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.interval):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
	}
	if err := s.stream.CloseSend(); err != nil {
		return fmt.Errorf("close cloud speech send direction: %w", err)
	}
	slog.Info("audio sent to cloud speech", "chunks_sent", sent)
	return nil
}

func (s *recognitionSession) receive(_ context.Context, emit func(transcriber.Subtitle)) error {
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || isCanceledStreamError(err) {
				slog.Info("cloud speech receive loop stopped", "reason", err.Error())
				return nil
			}
			if isStreamLimitError(err) {
				return fmt.Errorf("cloud speech stream limit reached: %w", err)
			}
			return fmt.Errorf("receive cloud speech result: %w", err)
		}
		s.lastActivity.Store(time.Now().UnixNano())

		interim := false
		for _, result := range resp.GetResults() {
			if len(result.GetAlternatives()) == 0 {
				continue
			}
			if !result.GetIsFinal() {
				interim = true
				continue
			}
			text := strings.TrimSpace(result.GetAlternatives()[0].GetTranscript())
			if text == "" {
				continue
			}
			var end time.Duration
			if off := result.GetResultEndOffset(); off != nil {
				end = off.AsDuration()
			}
			sub := s.builder.Build(s.builder.LastEnd(), end, text)
			slog.Info("subtitle emitted",
				"id", sub.ID,
				"start_sec", sub.Start.Seconds(),
				"end_sec", sub.End.Seconds(),
				"chars", len([]rune(sub.Text)))
			emit(sub)
		}
		s.interim.Store(interim)
	}
}

func (s *recognitionSession) activity() (time.Time, int) {
	pending := 0
	if s.interim.Load() {
		pending = 1
	}
	return time.Unix(0, s.lastActivity.Load()), pending
}

func isCanceledStreamError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Canceled
}

// isStreamLimitError reports the aborts Cloud Speech uses when a single
// stream runs past its duration or idle limits.
func isStreamLimitError(err error) bool {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Aborted {
		return false
	}
	msg := strings.ToLower(st.Message())
	return strings.Contains(msg, "max duration of 5 minutes") ||
		strings.Contains(msg, "stream timed out after receiving no more client requests")
}
