package stt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/transcript"
)

const (
	DefaultModel    = "whisper-1"
	DefaultMinChars = 10

	transcriptionsPath = "/audio/transcriptions"
	errorBodyLimit     = 512
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	MinChars int
	Timeout  time.Duration
}

type Options struct {
	Language string
	Format   transcript.Format
}

// Transcriber sends audio files to an OpenAI-compatible transcription endpoint.
type Transcriber struct {
	client   HTTPClient
	endpoint string
	apiKey   string
	model    string
	minChars int
	timeout  time.Duration
	logger   logger.Logger
}

func NewTranscriber(client HTTPClient, cfg Config, l logger.Logger) *Transcriber {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	minChars := cfg.MinChars
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	return &Transcriber{
		client:   client,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + transcriptionsPath,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		model:    model,
		minChars: minChars,
		timeout:  cfg.Timeout,
		logger:   l,
	}
}

// Ready fails with ErrConfiguration when no credential is configured.
func (t *Transcriber) Ready() error {
	if t.apiKey == "" {
		return fmt.Errorf("%w: speech-to-text api key is not set", transcript.ErrConfiguration)
	}
	return nil
}

type transcriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (t *Transcriber) Transcribe(ctx context.Context, audio transcript.Audio, opts Options) ([]transcript.Segment, error) {
	if err := t.Ready(); err != nil {
		return nil, err
	}

	started := time.Now()
	resp, err := t.send(ctx, audio, opts)
	if err != nil {
		return nil, err
	}

	segments := resp.segments()
	if n := utf8.RuneCountInString(strings.TrimSpace(transcript.ToText(segments))); n < t.minChars {
		return nil, fmt.Errorf("%w: %d characters transcribed, need at least %d",
			transcript.ErrInsufficientContent, n, t.minChars)
	}

	t.logger.WithFields(logger.Fields{
		"model":    t.model,
		"segments": len(segments),
		"bytes":    audio.Size,
		"duration": time.Since(started).String(),
	}).Info("Audio transcribed")
	return segments, nil
}

func (t *Transcriber) send(ctx context.Context, audio transcript.Audio, opts Options) (*transcriptionResponse, error) {
	file, err := os.Open(audio.Path)
	if err != nil {
		return nil, errors.Join(transcript.ErrTranscriptionFailed, fmt.Errorf("open audio: %w", err))
	}
	defer file.Close()

	reqCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(t.writeForm(mw, file, audio, opts))
	}()
	defer pr.Close()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, t.endpoint, pr)
	if err != nil {
		return nil, errors.Join(transcript.ErrConfiguration, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, &transcript.TimeoutError{URL: t.endpoint, Timeout: t.timeout}
		}
		return nil, errors.Join(transcript.ErrTranscriptionFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, errorBodyLimit))
		httpErr := &transcript.HTTPError{
			StatusCode: res.StatusCode,
			URL:        t.endpoint,
			Body:       strings.TrimSpace(string(snippet)),
		}
		if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
			return nil, errors.Join(transcript.ErrConfiguration, httpErr)
		}
		return nil, errors.Join(transcript.ErrTranscriptionFailed, httpErr)
	}

	var decoded transcriptionResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, &transcript.TimeoutError{URL: t.endpoint, Timeout: t.timeout}
		}
		return nil, errors.Join(transcript.ErrTranscriptionFailed, fmt.Errorf("decode response: %w", err))
	}
	return &decoded, nil
}

func (t *Transcriber) writeForm(mw *multipart.Writer, file io.Reader, audio transcript.Audio, opts Options) error {
	fields := [][2]string{
		{"model", t.model},
		{"response_format", responseFormat(opts.Format)},
	}
	if lang := transcript.BaseLanguage(opts.Language); lang != "" {
		fields = append(fields, [2]string{"language", lang})
	}
	for _, field := range fields {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return err
		}
	}

	name := filepath.Base(audio.Path)
	if audio.Ext != "" && filepath.Ext(name) == "" {
		name += "." + audio.Ext
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	return mw.Close()
}

// verbose_json carries segment timings, which only SRT output needs.
func responseFormat(format transcript.Format) string {
	if format == transcript.FormatSRT {
		return "verbose_json"
	}
	return "json"
}

func (r *transcriptionResponse) segments() []transcript.Segment {
	segments := make([]transcript.Segment, 0, len(r.Segments))
	for _, s := range r.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		segments = append(segments, transcript.NewSegment(text, s.Start, s.End-s.Start))
	}
	if len(segments) > 0 {
		return segments
	}
	if text := strings.TrimSpace(r.Text); text != "" {
		return []transcript.Segment{transcript.NewSegment(text, 0, r.Duration)}
	}
	return nil
}
