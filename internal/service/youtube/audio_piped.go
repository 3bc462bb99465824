package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/transcript"
)

const StrategyAudioPiped = "audio-piped"

// Bitrate is a stream bitrate in kbps. Mirrors report it as a number or as
// strings like "128 kbps"; values of 10000 and above are bits per second.
type Bitrate float64

var bitrateNumberRE = regexp.MustCompile(`\d+(?:\.\d+)?`)

func (b *Bitrate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = 0
		return nil
	}

	var value float64
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		match := bitrateNumberRE.FindString(s)
		if match == "" {
			*b = 0
			return nil
		}
		value, _ = strconv.ParseFloat(match, 64)
	} else if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	if value >= 10000 {
		value /= 1000
	}
	*b = Bitrate(value)
	return nil
}

type pipedStream struct {
	URL       string  `json:"url"`
	Bitrate   Bitrate `json:"bitrate"`
	MimeType  string  `json:"mimeType"`
	Format    string  `json:"format"`
	Quality   string  `json:"quality"`
	VideoOnly bool    `json:"videoOnly"`
}

type pipedStreams struct {
	AudioStreams []pipedStream `json:"audioStreams"`
	Error        string        `json:"error"`
	Message      string        `json:"message"`
}

// pickBestStream returns the stream with the highest bitrate; ties keep the first.
func pickBestStream(streams []pipedStream) (pipedStream, bool) {
	var best pipedStream
	found := false
	for _, stream := range streams {
		if stream.URL == "" || stream.VideoOnly {
			continue
		}
		if !found || stream.Bitrate > best.Bitrate {
			best = stream
			found = true
		}
	}
	return best, found
}

// MirrorAudio asks Piped mirrors for stream URLs, trying each mirror in order.
type MirrorAudio struct {
	fetcher         *Fetcher
	downloader      *Fetcher
	mirrors         []string
	mirrorTimeout   time.Duration
	downloadTimeout time.Duration
	logger          logger.Logger
}

func NewMirrorAudio(fetcher, downloader *Fetcher, mirrors []string, mirrorTimeout, downloadTimeout time.Duration, l logger.Logger) *MirrorAudio {
	cleaned := make([]string, 0, len(mirrors))
	for _, mirror := range mirrors {
		if mirror = strings.TrimRight(strings.TrimSpace(mirror), "/"); mirror != "" {
			cleaned = append(cleaned, mirror)
		}
	}
	return &MirrorAudio{
		fetcher:         fetcher,
		downloader:      downloader,
		mirrors:         cleaned,
		mirrorTimeout:   mirrorTimeout,
		downloadTimeout: downloadTimeout,
		logger:          l,
	}
}

func (m *MirrorAudio) Name() string {
	return StrategyAudioPiped
}

func (m *MirrorAudio) FetchAudio(ctx context.Context, ref transcript.VideoRef, dir string) (transcript.Audio, error) {
	if len(m.mirrors) == 0 {
		return transcript.Audio{}, fmt.Errorf("%w: no mirrors configured", transcript.ErrNoAudioAvailable)
	}

	steps := make([]transcript.Attempt, 0, len(m.mirrors))
	for _, mirror := range m.mirrors {
		name := mirrorName(mirror)
		started := time.Now()
		audio, err := m.fetchFromMirror(ctx, ref, mirror, dir)
		if err == nil {
			audio.Steps = append(steps, transcript.SucceededAttempt(name, time.Since(started), nil))
			return audio, nil
		}
		if ctx.Err() != nil {
			return transcript.Audio{}, ctx.Err()
		}

		m.logger.WithFields(logger.Fields{
			"video_id": ref.ID,
			"step":     name,
		}).WithError(err).Warn("Mirror failed")
		steps = append(steps, transcript.FailedAttempt(name, err, time.Since(started)))
	}
	return transcript.Audio{}, &transcript.StepsError{Steps: steps}
}

func (m *MirrorAudio) fetchFromMirror(ctx context.Context, ref transcript.VideoRef, mirror, dir string) (transcript.Audio, error) {
	data, err := m.fetcher.Fetch(ctx, mirror+"/streams/"+url.PathEscape(ref.ID), map[string]string{
		"Accept": "application/json",
	}, m.mirrorTimeout)
	if err != nil {
		return transcript.Audio{}, errors.Join(transcript.ErrDownloadFailed, fmt.Errorf("streams: %w", err))
	}

	var streams pipedStreams
	if err := json.Unmarshal(data, &streams); err != nil {
		return transcript.Audio{}, errors.Join(transcript.ErrParse, fmt.Errorf("decode streams: %w", err))
	}
	if streams.Error != "" {
		return transcript.Audio{}, fmt.Errorf("%w: %s %s", transcript.ErrNoAudioAvailable, streams.Error, streams.Message)
	}

	stream, ok := pickBestStream(streams.AudioStreams)
	if !ok {
		return transcript.Audio{}, fmt.Errorf("%w: mirror returned no audio streams", transcript.ErrNoAudioAvailable)
	}

	m.logger.WithFields(logger.Fields{
		"video_id": ref.ID,
		"step":     mirrorName(mirror),
		"bitrate":  float64(stream.Bitrate),
		"format":   stream.Format,
	}).Debug("Mirror stream selected")

	return downloadAudio(ctx, m.downloader, stream.URL, nil, m.downloadTimeout,
		dir, ref.ID, InferExtension(stream.Format, stream.MimeType))
}

func mirrorName(mirror string) string {
	if parsed, err := url.Parse(mirror); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return mirror
}
