package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/transcript"
)

const StrategyAudioInnertube = "audio-innertube"

// PlayerAudio resolves audio formats through the player API, one client
// profile at a time, and downloads the best one.
type PlayerAudio struct {
	fetcher         *Fetcher
	downloader      *Fetcher
	playerURL       string
	profiles        []ClientProfile
	language        string
	metadataTimeout time.Duration
	downloadTimeout time.Duration
	logger          logger.Logger
}

type PlayerAudioConfig struct {
	PlayerURL       string
	Profiles        []ClientProfile
	Language        string
	MetadataTimeout time.Duration
	DownloadTimeout time.Duration
}

func NewPlayerAudio(fetcher, downloader *Fetcher, cfg PlayerAudioConfig, l logger.Logger) *PlayerAudio {
	playerURL := cfg.PlayerURL
	if playerURL == "" {
		playerURL = DefaultPlayerURL
	}
	return &PlayerAudio{
		fetcher:         fetcher,
		downloader:      downloader,
		playerURL:       playerURL,
		profiles:        cfg.Profiles,
		language:        cfg.Language,
		metadataTimeout: cfg.MetadataTimeout,
		downloadTimeout: cfg.DownloadTimeout,
		logger:          l,
	}
}

func (p *PlayerAudio) Name() string {
	return StrategyAudioInnertube
}

func (p *PlayerAudio) FetchAudio(ctx context.Context, ref transcript.VideoRef, dir string) (transcript.Audio, error) {
	if len(p.profiles) == 0 {
		return transcript.Audio{}, fmt.Errorf("%w: no client profiles configured", transcript.ErrNoAudioAvailable)
	}

	steps := make([]transcript.Attempt, 0, len(p.profiles))
	for _, profile := range p.profiles {
		started := time.Now()
		audio, err := p.fetchWithProfile(ctx, ref, profile, dir)
		if err == nil {
			audio.Steps = append(steps, transcript.SucceededAttempt(profile.Name, time.Since(started), nil))
			return audio, nil
		}
		if ctx.Err() != nil {
			return transcript.Audio{}, ctx.Err()
		}

		p.logger.WithFields(logger.Fields{
			"video_id": ref.ID,
			"step":     profile.Name,
		}).WithError(err).Warn("Player profile failed")
		steps = append(steps, transcript.FailedAttempt(profile.Name, err, time.Since(started)))
	}
	return transcript.Audio{}, &transcript.StepsError{Steps: steps}
}

func (p *PlayerAudio) fetchWithProfile(ctx context.Context, ref transcript.VideoRef, profile ClientProfile, dir string) (transcript.Audio, error) {
	body, err := json.Marshal(newPlayerRequest(ref.ID, profile, p.language))
	if err != nil {
		return transcript.Audio{}, err
	}

	headers := p.profileHeaders(profile)
	headers["Content-Type"] = "application/json"
	data, err := p.fetcher.Post(ctx, p.playerURL+"?prettyPrint=false", body, headers, p.metadataTimeout)
	if err != nil {
		return transcript.Audio{}, errors.Join(transcript.ErrDownloadFailed, fmt.Errorf("player: %w", err))
	}

	var player playerResponse
	if err := json.Unmarshal(data, &player); err != nil {
		return transcript.Audio{}, errors.Join(transcript.ErrParse, fmt.Errorf("decode player: %w", err))
	}
	if ok, reason := player.playable(); !ok {
		return transcript.Audio{}, fmt.Errorf("%w: %s", transcript.ErrNoAudioAvailable, reason)
	}

	format, ok := player.bestAudioFormat()
	if !ok {
		return transcript.Audio{}, fmt.Errorf("%w: no audio-only format with a direct URL", transcript.ErrNoAudioAvailable)
	}

	p.logger.WithFields(logger.Fields{
		"video_id": ref.ID,
		"step":     profile.Name,
		"itag":     format.Itag,
		"bitrate":  format.Bitrate,
	}).Debug("Audio format selected")

	return downloadAudio(ctx, p.downloader, format.URL, p.profileHeaders(profile), p.downloadTimeout,
		dir, ref.ID, InferExtension("", format.MimeType))
}

func (p *PlayerAudio) profileHeaders(profile ClientProfile) map[string]string {
	headers := map[string]string{
		"X-Youtube-Client-Name":    profile.HeaderClientName,
		"X-Youtube-Client-Version": profile.ClientVersion,
		"Origin":                   youtubeOrigin,
	}
	if profile.UserAgent != "" {
		headers["User-Agent"] = profile.UserAgent
	}
	return headers
}
