package youtube

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/transcript"
)

const (
	StrategyAudioYtdlp = "audio-ytdlp"
	bestAudioFormat    = "bestaudio/best"
)

// DownloaderAudio runs yt-dlp for the best audio into the request directory.
type DownloaderAudio struct {
	extractor ContentExtractor
	options   FetchOptions
	timeout   time.Duration
	logger    logger.Logger
}

func NewDownloaderAudio(extractor ContentExtractor, options FetchOptions, timeout time.Duration, l logger.Logger) *DownloaderAudio {
	return &DownloaderAudio{
		extractor: extractor,
		options:   options,
		timeout:   timeout,
		logger:    l,
	}
}

func (d *DownloaderAudio) Name() string {
	return StrategyAudioYtdlp
}

func (d *DownloaderAudio) FetchAudio(ctx context.Context, ref transcript.VideoRef, dir string) (transcript.Audio, error) {
	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	options := d.options
	options.Format = bestAudioFormat
	options.Output = filepath.Join(dir, "%(id)s.%(ext)s")
	options.WorkDir = dir
	options.NoPlaylist = true

	started := time.Now()
	if _, err := d.extractor.Extract(runCtx, ref.WatchURL(), options); err != nil {
		err = deadlineError(ctx, runCtx, ref.WatchURL(), d.timeout, err)
		if ctx.Err() != nil {
			return transcript.Audio{}, err
		}
		return transcript.Audio{}, errors.Join(transcript.ErrDownloadFailed, err)
	}

	audio, err := largestAudioFile(dir)
	if err != nil {
		return transcript.Audio{}, err
	}

	d.logger.WithFields(logger.Fields{
		"video_id": ref.ID,
		"file":     filepath.Base(audio.Path),
		"size":     audio.Size,
		"duration": time.Since(started).String(),
	}).Debug("yt-dlp download finished")
	return audio, nil
}

// largestAudioFile returns the biggest file in dir with a recognised audio extension.
func largestAudioFile(dir string) (transcript.Audio, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return transcript.Audio{}, errors.Join(transcript.ErrDownloadFailed, err)
	}

	var best transcript.Audio
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(entry.Name()), "."))
		if !isAudioExtension(ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Size() > best.Size {
			best = transcript.Audio{
				Path: filepath.Join(dir, entry.Name()),
				Ext:  ext,
				Size: info.Size(),
			}
		}
	}

	if best.Path == "" {
		return transcript.Audio{}, fmt.Errorf("%w: yt-dlp produced no audio file", transcript.ErrNoAudioAvailable)
	}
	return best, nil
}
