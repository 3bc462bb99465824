package youtube

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestInferExtension(t *testing.T) {
	tests := []struct {
		container string
		mimeType  string
		expected  string
	}{
		{"M4A", "audio/webm", "m4a"},
		{".opus", "", "opus"},
		{"WEBMA_OPUS", "", "webm"},
		{"", `audio/mp4; codecs="mp4a.40.2"`, "m4a"},
		{"", `audio/webm; codecs="opus"`, "webm"},
		{"", "audio/mpeg", "mp3"},
		{"", "video/x-unknown", "webm"},
		{"", "", "webm"},
		{"", "not a mime", "webm"},
		{"/../x", "audio/mp4", "m4a"},
		{"../../escaped", "", "webm"},
		{"mkv", "audio/ogg", "ogg"},
	}

	for _, tt := range tests {
		t.Run(tt.container+"|"+tt.mimeType, func(t *testing.T) {
			assert.Equal(t, tt.expected, InferExtension(tt.container, tt.mimeType))
		})
	}
}

func writeFile(t *testing.T, dir, name string, size int) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o644))
}

func TestLargestAudioFile(t *testing.T) {
	t.Run("largest recognised file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.m4a", 100)
		writeFile(t, dir, "b.webm", 300)
		writeFile(t, dir, "c.part", 900)
		writeFile(t, dir, "d.json", 1000)
		require.NoError(t, os.Mkdir(filepath.Join(dir, "e.mp3"), 0o755))

		audio, err := largestAudioFile(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "b.webm"), audio.Path)
		assert.Equal(t, "webm", audio.Ext)
		assert.Equal(t, int64(300), audio.Size)
	})

	t.Run("uppercase extension", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "x.OPUS", 10)

		audio, err := largestAudioFile(dir)
		require.NoError(t, err)
		assert.Equal(t, "opus", audio.Ext)
	})

	t.Run("nothing usable", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "x.txt", 10)

		_, err := largestAudioFile(dir)
		require.ErrorIs(t, err, transcript.ErrNoAudioAvailable)
	})
}

func TestDownloaderAudio_FetchAudio(t *testing.T) {
	t.Run("runs yt-dlp into the request directory", func(t *testing.T) {
		dir := t.TempDir()

		mockExtractor := NewMockContentExtractor(t)
		mockExtractor.EXPECT().Extract(
			mock.Anything,
			"https://www.youtube.com/watch?v="+testVideoID,
			mock.MatchedBy(func(o FetchOptions) bool {
				return o.Format == "bestaudio/best" && o.WorkDir == dir && o.NoPlaylist &&
					o.Output == filepath.Join(dir, "%(id)s.%(ext)s") && o.CookiesFile == "cookies.txt"
			}),
		).RunAndReturn(func(_ context.Context, _ string, o FetchOptions) (*ytdlp.Result, error) {
			writeFile(t, o.WorkDir, testVideoID+".m4a", 2048)
			writeFile(t, o.WorkDir, testVideoID+".webm", 1024)
			return &ytdlp.Result{}, nil
		}).Once()

		d := NewDownloaderAudio(mockExtractor, FetchOptions{CookiesFile: "cookies.txt"}, time.Second, logger.NewTestLogger())
		audio, err := d.FetchAudio(context.Background(), testRef, dir)
		require.NoError(t, err)
		assert.Equal(t, "m4a", audio.Ext)
		assert.Equal(t, int64(2048), audio.Size)
	})

	t.Run("tool failure", func(t *testing.T) {
		mockExtractor := NewMockContentExtractor(t)
		mockExtractor.EXPECT().Extract(mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("exit status 1")).Once()

		d := NewDownloaderAudio(mockExtractor, FetchOptions{}, time.Second, logger.NewTestLogger())
		_, err := d.FetchAudio(context.Background(), testRef, t.TempDir())
		require.ErrorIs(t, err, transcript.ErrDownloadFailed)
	})

	t.Run("tool timeout", func(t *testing.T) {
		mockExtractor := NewMockContentExtractor(t)
		mockExtractor.EXPECT().Extract(mock.Anything, mock.Anything, mock.Anything).
			RunAndReturn(func(ctx context.Context, _ string, _ FetchOptions) (*ytdlp.Result, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}).Once()

		d := NewDownloaderAudio(mockExtractor, FetchOptions{}, 20*time.Millisecond, logger.NewTestLogger())
		_, err := d.FetchAudio(context.Background(), testRef, t.TempDir())
		require.ErrorIs(t, err, transcript.ErrTimeout)
	})

	t.Run("no output file", func(t *testing.T) {
		mockExtractor := NewMockContentExtractor(t)
		mockExtractor.EXPECT().Extract(mock.Anything, mock.Anything, mock.Anything).
			Return(&ytdlp.Result{}, nil).Once()

		d := NewDownloaderAudio(mockExtractor, FetchOptions{}, time.Second, logger.NewTestLogger())
		_, err := d.FetchAudio(context.Background(), testRef, t.TempDir())
		require.ErrorIs(t, err, transcript.ErrNoAudioAvailable)
	})
}
