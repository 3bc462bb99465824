package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/service/stt"
	"github.com/muratoffalex/ytscribe/internal/transcript"
)

// Request is one transcript acquisition. ID is unique per request and ends up
// in temp directory names and the attempt history.
type Request struct {
	ID       string
	Ref      transcript.VideoRef
	Language string
	Format   transcript.Format
}

// Outcome is what a strategy produced. Steps may be set on failure as well.
type Outcome struct {
	Segments []transcript.Segment
	Language string
	Steps    []transcript.Attempt
}

type Strategy interface {
	Name() string
	Run(ctx context.Context, req Request) (Outcome, error)
}

type CaptionSource interface {
	Name() string
	FetchCaptions(ctx context.Context, ref transcript.VideoRef, lang string) ([]transcript.Segment, string, error)
}

type AudioSource interface {
	Name() string
	FetchAudio(ctx context.Context, ref transcript.VideoRef, dir string) (transcript.Audio, error)
}

type Transcriber interface {
	Ready() error
	Transcribe(ctx context.Context, audio transcript.Audio, opts stt.Options) ([]transcript.Segment, error)
}

type captionStrategy struct {
	source CaptionSource
}

func CaptionStrategy(source CaptionSource) Strategy {
	return &captionStrategy{source: source}
}

func (s *captionStrategy) Name() string {
	return s.source.Name()
}

func (s *captionStrategy) Run(ctx context.Context, req Request) (Outcome, error) {
	segments, lang, err := s.source.FetchCaptions(ctx, req.Ref, req.Language)
	if err != nil {
		return Outcome{}, err
	}
	if len(segments) == 0 {
		return Outcome{}, fmt.Errorf("%w: no segments", transcript.ErrCaptionsUnavailable)
	}
	return Outcome{Segments: segments, Language: lang}, nil
}

// audioStrategy downloads audio into a private temp directory and transcribes
// it. The directory is removed whatever the outcome.
type audioStrategy struct {
	source      AudioSource
	transcriber Transcriber
	tempBase    string
	logger      logger.Logger
}

func AudioStrategy(source AudioSource, transcriber Transcriber, tempBase string, l logger.Logger) Strategy {
	return &audioStrategy{
		source:      source,
		transcriber: transcriber,
		tempBase:    tempBase,
		logger:      l,
	}
}

func (s *audioStrategy) Name() string {
	return s.source.Name()
}

func (s *audioStrategy) Run(ctx context.Context, req Request) (Outcome, error) {
	if err := s.transcriber.Ready(); err != nil {
		return Outcome{}, err
	}

	dir, err := os.MkdirTemp(s.tempBase, "ytscribe-"+req.ID+"-*")
	if err != nil {
		return Outcome{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.WithError(err).WithField("dir", dir).Warn("Failed to remove temp dir")
		}
	}()

	audio, err := s.source.FetchAudio(ctx, req.Ref, dir)
	if err != nil {
		return Outcome{}, err
	}

	s.logger.WithFields(logger.Fields{
		"request_id": req.ID,
		"video_id":   req.Ref.ID,
		"strategy":   s.Name(),
		"ext":        audio.Ext,
		"bytes":      audio.Size,
	}).Debug("Audio downloaded")

	segments, err := s.transcriber.Transcribe(ctx, audio, stt.Options{
		Language: req.Language,
		Format:   req.Format,
	})
	if err != nil {
		return Outcome{Steps: audio.Steps}, err
	}
	return Outcome{Segments: segments, Language: req.Language, Steps: audio.Steps}, nil
}

// Select orders the available strategies by names. Unknown or repeated names are an error.
func Select(names []string, available ...Strategy) ([]Strategy, error) {
	byName := make(map[string]Strategy, len(available))
	for _, s := range available {
		byName[s.Name()] = s
	}

	selected := make([]Strategy, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown strategy %q", transcript.ErrConfiguration, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: strategy %q listed twice", transcript.ErrConfiguration, name)
		}
		seen[name] = true
		selected = append(selected, s)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no strategies configured", transcript.ErrConfiguration)
	}
	return selected, nil
}
