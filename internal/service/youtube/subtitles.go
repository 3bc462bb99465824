package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/transcript"
)

const StrategyCaptionsYtdlp = "captions-ytdlp"

var (
	ErrExtractYoutubeData = errors.New("failed to extract youtube data")
	ErrExtractVideoInfo   = errors.New("failed to extract video info")
	ErrNoVideoInfo        = errors.New("no video info available")
	ErrNoSubtitleTrack    = errors.New("no subtitle track for language")
	ErrNoSubtitleFormat   = errors.New("no srv1 or srt rendition")
)

// SubtitleFetcher reads caption tracks from yt-dlp metadata.
type SubtitleFetcher struct {
	extractor       ContentExtractor
	fetcher         *Fetcher
	options         FetchOptions
	metadataTimeout time.Duration
	captionsTimeout time.Duration
	logger          logger.Logger
}

func NewSubtitleFetcher(
	extractor ContentExtractor,
	fetcher *Fetcher,
	options FetchOptions,
	metadataTimeout, captionsTimeout time.Duration,
	l logger.Logger,
) *SubtitleFetcher {
	return &SubtitleFetcher{
		extractor:       extractor,
		fetcher:         fetcher,
		options:         options,
		metadataTimeout: metadataTimeout,
		captionsTimeout: captionsTimeout,
		logger:          l,
	}
}

func (sf *SubtitleFetcher) Name() string {
	return StrategyCaptionsYtdlp
}

func (sf *SubtitleFetcher) FetchCaptions(ctx context.Context, ref transcript.VideoRef, lang string) ([]transcript.Segment, string, error) {
	info, err := sf.extractInfo(ctx, ref)
	if err != nil {
		return nil, "", errors.Join(transcript.ErrCaptionsUnavailable, err)
	}

	renditions, code, err := selectSubtitle(info, lang)
	if err != nil {
		return nil, "", errors.Join(transcript.ErrCaptionsUnavailable, err)
	}

	sf.logger.WithFields(logger.Fields{
		"video_id":             ref.ID,
		"language":             code,
		"available_renditions": len(renditions),
	}).Debug("Subtitle track selected")

	subtitleURL, format, err := pickRendition(renditions)
	if err != nil {
		return nil, "", errors.Join(transcript.ErrCaptionsUnavailable, err)
	}

	data, err := sf.fetcher.Fetch(ctx, subtitleURL, nil, sf.captionsTimeout)
	if err != nil {
		return nil, "", errors.Join(transcript.ErrCaptionsUnavailable, err)
	}

	var segments []transcript.Segment
	if format == "srv1" {
		segments, err = ParseTimedText(data)
	} else {
		segments, err = ParseSRT(data)
	}
	if err != nil {
		return nil, "", err
	}
	if len(segments) == 0 {
		return nil, "", fmt.Errorf("%w: empty %s track", transcript.ErrCaptionsUnavailable, format)
	}
	return segments, code, nil
}

func (sf *SubtitleFetcher) extractInfo(ctx context.Context, ref transcript.VideoRef) (*ytdlp.ExtractedInfo, error) {
	extractCtx, cancel := context.WithTimeout(ctx, sf.metadataTimeout)
	defer cancel()

	options := sf.options
	options.SkipDownload = true
	options.PrintJSON = true
	options.NoPlaylist = true

	output, err := sf.extractor.Extract(extractCtx, ref.WatchURL(), options)
	if err != nil {
		return nil, errors.Join(ErrExtractYoutubeData, deadlineError(ctx, extractCtx, ref.WatchURL(), sf.metadataTimeout, err))
	}

	info, err := output.GetExtractedInfo()
	if err != nil {
		return nil, errors.Join(ErrExtractVideoInfo, err)
	}

	if len(info) == 0 || info[0] == nil {
		return nil, ErrNoVideoInfo
	}
	return info[0], nil
}

// selectSubtitle prefers manual subtitles over automatic captions; within each it
// tries the requested language, its base language, then the video's own language.
func selectSubtitle(info *ytdlp.ExtractedInfo, lang string) ([]*ytdlp.ExtractedSubtitle, string, error) {
	var videoLang string
	if info.ExtractedFormat != nil && info.Language != nil {
		videoLang = *info.Language
	}

	wanted := make([]string, 0, 2)
	for _, code := range []string{lang, videoLang} {
		if code != "" && !slices.Contains(wanted, code) {
			wanted = append(wanted, code)
		}
	}
	if len(wanted) == 0 {
		return nil, "", fmt.Errorf("%w: no language requested and video language unknown", ErrNoSubtitleTrack)
	}

	for _, tracks := range []map[string][]*ytdlp.ExtractedSubtitle{info.Subtitles, info.AutomaticCaptions} {
		for _, code := range wanted {
			if renditions, ok := tracks[code]; ok && len(renditions) > 0 {
				return renditions, code, nil
			}
			keys := make([]string, 0, len(tracks))
			for key := range tracks {
				keys = append(keys, key)
			}
			slices.Sort(keys)
			for _, key := range keys {
				if transcript.SameLanguage(key, code) && len(tracks[key]) > 0 {
					return tracks[key], key, nil
				}
			}
		}
	}
	return nil, "", fmt.Errorf("%w: %v", ErrNoSubtitleTrack, wanted)
}

// pickRendition prefers timed-text XML (fmt=srv1) and falls back to SubRip.
func pickRendition(renditions []*ytdlp.ExtractedSubtitle) (string, string, error) {
	for _, format := range []string{"srv1", "srt"} {
		for _, rendition := range renditions {
			if rendition == nil || rendition.URL == "" {
				continue
			}
			if renditionFormat(rendition.URL) == format {
				return rendition.URL, format, nil
			}
		}
	}
	return "", "", ErrNoSubtitleFormat
}

func renditionFormat(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("fmt")
}
