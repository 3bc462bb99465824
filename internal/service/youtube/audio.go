package youtube

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/muratoffalex/ytscribe/internal/transcript"
)

const defaultAudioExt = "webm"

var AudioExtensions = []string{"m4a", "webm", "opus", "mp3", "ogg", "oga", "aac", "wav", "flac", "mka"}

var containerAliases = map[string]string{
	"mp4":        "m4a",
	"mpeg_4":     "m4a",
	"webma":      "webm",
	"webma_opus": "webm",
	"mpeg":       "mp3",
}

var mimeExtensions = map[string]string{
	"audio/mp4":    "m4a",
	"audio/m4a":    "m4a",
	"audio/x-m4a":  "m4a",
	"audio/webm":   "webm",
	"audio/mpeg":   "mp3",
	"audio/mp3":    "mp3",
	"audio/ogg":    "ogg",
	"audio/opus":   "opus",
	"audio/aac":    "aac",
	"audio/wav":    "wav",
	"audio/x-wav":  "wav",
	"audio/flac":   "flac",
	"audio/x-flac": "flac",
}

// InferExtension resolves a file extension: a known audio container first,
// then the MIME type, then webm. The result is always one of AudioExtensions.
func InferExtension(container, mimeType string) string {
	container = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(container), "."))
	if alias, ok := containerAliases[container]; ok {
		return alias
	}
	if isAudioExtension(container) {
		return container
	}

	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		if ext, ok := mimeExtensions[mediaType]; ok {
			return ext
		}
	}
	return defaultAudioExt
}

func isAudioExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, known := range AudioExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// downloadAudio streams url into dir/name.ext. A partial file is removed on failure.
func downloadAudio(
	ctx context.Context,
	fetcher *Fetcher,
	url string,
	headers map[string]string,
	timeout time.Duration,
	dir, name, ext string,
) (transcript.Audio, error) {
	path := filepath.Join(dir, name+"."+ext)
	file, err := os.Create(path)
	if err != nil {
		return transcript.Audio{}, fmt.Errorf("create audio file: %w", err)
	}

	size, err := fetcher.Download(ctx, url, headers, timeout, file)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && size == 0 {
		err = errors.New("empty audio body")
	}
	if err != nil {
		_ = os.Remove(path)
		if ctx.Err() != nil {
			return transcript.Audio{}, ctx.Err()
		}
		return transcript.Audio{}, errors.Join(transcript.ErrDownloadFailed, err)
	}

	return transcript.Audio{Path: path, Ext: ext, Size: size}, nil
}
